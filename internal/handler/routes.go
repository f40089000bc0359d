package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/life-ease-api/internal/realtime"
)

// Routes groups the handlers mounted by Register.
type Routes struct {
	APIPrefix string
	Session   gin.HandlerFunc

	Auth     *AuthHandler
	Users    *UserHandler
	Tasks    *TaskHandler
	Messages *MessageHandler
	Water    *WaterHandler
	Metrics  *MetricsHandler
	Realtime *realtime.Handler
}

// Register mounts every endpoint on r.
func Register(r *gin.Engine, routes Routes) {
	prefix := routes.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}

	r.GET("/health", routes.Metrics.Health)
	r.GET("/ready", routes.Metrics.Ready)
	r.GET("/metrics", routes.Metrics.Prometheus)
	r.GET("/ws", routes.Realtime.Serve)

	api := r.Group(prefix)
	api.GET("", routes.Metrics.Index)
	api.GET("/health", routes.Metrics.Health)

	auth := api.Group("/auth")
	auth.POST("/register", routes.Auth.Register)
	auth.POST("/login", routes.Auth.Login)
	auth.POST("/refresh", routes.Auth.Refresh)
	auth.POST("/logout", routes.Session, routes.Auth.Logout)

	protected := api.Group("")
	protected.Use(routes.Session)

	users := protected.Group("/users")
	users.GET("/profile", routes.Users.Profile)
	users.PUT("/profile", routes.Users.UpdateProfile)
	users.GET("/online", routes.Users.Online)

	tasks := protected.Group("/tasks")
	tasks.GET("", routes.Tasks.List)
	tasks.GET("/categories", routes.Tasks.Categories)
	tasks.GET("/overdue", routes.Tasks.Overdue)
	tasks.POST("", routes.Tasks.Create)
	tasks.PUT("/:id", routes.Tasks.Update)
	tasks.DELETE("/:id", routes.Tasks.Delete)

	messages := protected.Group("/messages")
	messages.GET("", routes.Messages.List)
	messages.POST("", routes.Messages.Send)
	messages.PATCH("/:id/sync", routes.Messages.Sync)
	messages.PATCH("/:id/read", routes.Messages.Read)

	water := protected.Group("/water-entries")
	water.GET("", routes.Water.List)
	water.GET("/summary", routes.Water.Summary)
	water.GET("/export", routes.Water.Export)
	water.POST("", routes.Water.Create)
	water.PUT("/:id", routes.Water.Update)
	water.DELETE("/:id", routes.Water.Delete)
}
