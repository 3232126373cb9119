package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/middleware"
)

// ResourceController handles resource listing endpoints
type ResourceController struct {
	resourceService services.ResourceService
	userService     services.UserService
	logger          zerolog.Logger
}

// NewResourceController creates a new ResourceController
func NewResourceController(resourceService services.ResourceService, userService services.UserService, logger zerolog.Logger) *ResourceController {
	return &ResourceController{
		resourceService: resourceService,
		userService:     userService,
		logger:          logger,
	}
}

// Create lists a new resource owned by the authenticated user
func (ctrl *ResourceController) Create(c *gin.Context) {
	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	userID := middleware.CurrentUserID(c)
	profile, err := ctrl.userService.GetProfile(c, userID)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	resource, err := ctrl.resourceService.Create(c, userID, profile.Name, profile.College, &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(resource, "Resource created successfully"))
}

// Update applies the authenticated owner's edits to a listing
func (ctrl *ResourceController) Update(c *gin.Context) {
	var req dto.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resource, err := ctrl.resourceService.Update(c, c.Param("id"), middleware.CurrentUserID(c), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resource, "Resource updated successfully"))
}

// Delete removes the authenticated owner's listing
func (ctrl *ResourceController) Delete(c *gin.Context) {
	if err := ctrl.resourceService.Delete(c, c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Resource deleted successfully"))
}

// List returns resources filtered and ranked by the query parameters
func (ctrl *ResourceController) List(c *gin.Context) {
	var query dto.ListResourcesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resources, err := ctrl.resourceService.List(c, &query)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resources, "Resources retrieved successfully"))
}

// Get returns one resource with its comments and derived scores
func (ctrl *ResourceController) Get(c *gin.Context) {
	resource, err := ctrl.resourceService.Get(c, c.Param("id"))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resource, "Resource retrieved successfully"))
}

// AddComment appends a comment by the authenticated user
func (ctrl *ResourceController) AddComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	comment, err := ctrl.resourceService.AddComment(c, c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentUserName(c), req.Text)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(comment, "Comment added successfully"))
}

// Rate stores the authenticated user's rating for a resource
func (ctrl *ResourceController) Rate(c *gin.Context) {
	var req dto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := ctrl.resourceService.Rate(c, c.Param("id"), middleware.CurrentUserID(c), req.Score); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Rating recorded successfully"))
}

// IncrementView bumps the view counter
func (ctrl *ResourceController) IncrementView(c *gin.Context) {
	if err := ctrl.resourceService.IncrementView(c, c.Param("id")); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "View recorded"))
}

// IncrementDownload bumps the download counter
func (ctrl *ResourceController) IncrementDownload(c *gin.Context) {
	if err := ctrl.resourceService.IncrementDownload(c, c.Param("id")); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Download recorded"))
}

// UpdateStatus flips a resource between available and borrowed
func (ctrl *ResourceController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	err := ctrl.resourceService.UpdateStatus(c, c.Param("id"),
		middleware.CurrentUserID(c), models.ResourceStatus(req.Status))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Status updated successfully"))
}
