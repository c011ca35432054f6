package routes

import (
	"github.com/gin-gonic/gin"

	"briddhi-be/middlewares"
	"briddhi-be/realtime"
)

// RealtimeRoutes sets up the push channel endpoint. Scope membership comes
// from the verified token, so the socket requires auth up front.
func RealtimeRoutes(r *gin.Engine, hub *realtime.Hub) {
	r.GET("/ws", middlewares.RequireAuth(), realtime.Handler(hub))
}
