package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"briddhi-be/controllers"
	"briddhi-be/middlewares"
	"briddhi-be/models"
)

// CitizenRoutes sets up the citizen-facing routes
func CitizenRoutes(r *gin.Engine, cc *controllers.CitizenController, rdb *redis.Client) {
	citizen := r.Group("/citizen")
	{
		citizen.POST("/register", cc.Register)
		citizen.POST("/login", cc.Login)
		citizen.GET("/profile",
			middlewares.RequireAuth(),
			middlewares.RequireRoles(models.RoleCitizen, models.RoleAdmin),
			cc.GetProfile)
		citizen.POST("/submit-issue",
			middlewares.RequireAuth(),
			middlewares.RequireRoles(models.RoleCitizen),
			middlewares.IssueRateLimiter(rdb, 5),
			cc.SubmitIssue)
		citizen.GET("/my-issues",
			middlewares.RequireAuth(),
			middlewares.RequireRoles(models.RoleCitizen),
			cc.GetMyIssues)
	}
}
