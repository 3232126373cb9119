package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/middleware"
)

// UserController handles profile endpoints
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the authenticated user's profile with points, tier and
// badges
func (ctrl *UserController) GetProfile(c *gin.Context) {
	profile, err := ctrl.userService.GetProfile(c, middleware.CurrentUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile retrieved successfully"))
}

// UpdateProfile applies the editable profile fields
func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	profile, err := ctrl.userService.UpdateProfile(c, middleware.CurrentUserID(c), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile updated successfully"))
}
