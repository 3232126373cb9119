package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hydrashare/backend/internal/app/controllers"
	"github.com/hydrashare/backend/internal/middleware"
	"github.com/hydrashare/backend/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	resourceController *controllers.ResourceController,
	requestController *controllers.RequestController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
	}

	// --- Public listing routes ---
	resources := v1.Group("/resources")
	{
		resources.GET("", resourceController.List)
		resources.GET("/:id", resourceController.Get)
		resources.POST("/:id/views", resourceController.IncrementView)
		resources.POST("/:id/downloads", resourceController.IncrementDownload)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Profile
		users := authenticated.Group("/users")
		{
			users.GET("/me", userController.GetProfile)
			users.PUT("/me", userController.UpdateProfile)
		}

		// Resource writes
		resourcesProtected := authenticated.Group("/resources")
		{
			resourcesProtected.POST("", resourceController.Create)
			resourcesProtected.PUT("/:id", resourceController.Update)
			resourcesProtected.DELETE("/:id", resourceController.Delete)
			resourcesProtected.POST("/:id/comments", resourceController.AddComment)
			resourcesProtected.PUT("/:id/ratings", resourceController.Rate)
			resourcesProtected.PUT("/:id/status", resourceController.UpdateStatus)
		}

		// Share requests and their chat threads
		requests := authenticated.Group("/requests")
		{
			requests.POST("", requestController.Create)
			requests.GET("", requestController.List)
			requests.GET("/:id", requestController.Get)
			requests.POST("/:id/accept", requestController.Accept)
			requests.POST("/:id/deny", requestController.Deny)
			requests.POST("/:id/messages", requestController.PostMessage)
			requests.GET("/:id/messages", requestController.GetMessages)
		}

		// Live chat relay
		authenticated.GET("/ws/requests/:id", wsHandler.HandleConnection)
	}
}
