package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/middleware"
)

// AuthController handles registration
type AuthController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(userService services.UserService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		userService: userService,
		logger:      logger,
	}
}

// Register creates a new user account and returns its token pair
func (ctrl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	response, err := ctrl.userService.Register(c, &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSuccessResponse(response, "User registered successfully"))
}
