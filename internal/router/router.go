package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/handlers"
	"github.com/taskhub-dev/taskhub/internal/middleware"
	"github.com/taskhub-dev/taskhub/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("", handlers.CreateTask)
			tasks.GET("", handlers.ListTasks)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)
		}

		users := api.Group("/users", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			users.GET("", handlers.ListUsers)
			users.GET("/:user_id", handlers.GetUser)
		}
	}

	return r
}
