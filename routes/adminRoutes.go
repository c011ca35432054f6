package routes

import (
	"github.com/gin-gonic/gin"

	"briddhi-be/controllers"
	"briddhi-be/middlewares"
	"briddhi-be/models"
)

// AdminRoutes sets up the admin dashboard routes
func AdminRoutes(r *gin.Engine, ac *controllers.AdminController) {
	admin := r.Group("/admin")
	admin.Use(middlewares.RequireAuth(), middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/issues", ac.GetAllIssues)
		admin.PUT("/issues/:id/status", ac.UpdateIssueStatus)
		admin.GET("/analytics", ac.GetAnalytics)
	}
}
