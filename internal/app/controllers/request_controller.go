package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/middleware"
)

// RequestController handles share request endpoints
type RequestController struct {
	exchangeService services.ExchangeService
	logger          zerolog.Logger
}

// NewRequestController creates a new RequestController
func NewRequestController(exchangeService services.ExchangeService, logger zerolog.Logger) *RequestController {
	return &RequestController{
		exchangeService: exchangeService,
		logger:          logger,
	}
}

// Create opens a share request with its first chat message
func (ctrl *RequestController) Create(c *gin.Context) {
	var req dto.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	request, err := ctrl.exchangeService.CreateRequest(c, req.ResourceID,
		middleware.CurrentUserID(c), middleware.CurrentUserName(c), req.Message)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(request, "Request created successfully"))
}

// List returns the requests the authenticated user is a party to
func (ctrl *RequestController) List(c *gin.Context) {
	requests, err := ctrl.exchangeService.ListRequests(c, middleware.CurrentUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(requests, "Requests retrieved successfully"))
}

// Get returns one request with its ordered message thread
func (ctrl *RequestController) Get(c *gin.Context) {
	request, err := ctrl.exchangeService.GetRequest(c, c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(request, "Request retrieved successfully"))
}

// Accept moves a pending request to accepted
func (ctrl *RequestController) Accept(c *gin.Context) {
	if err := ctrl.exchangeService.AcceptRequest(c, c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Request accepted"))
}

// Deny moves a pending request to rejected
func (ctrl *RequestController) Deny(c *gin.Context) {
	if err := ctrl.exchangeService.DenyRequest(c, c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Request denied"))
}

// PostMessage appends a chat message to the request thread
func (ctrl *RequestController) PostMessage(c *gin.Context) {
	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	message, err := ctrl.exchangeService.PostMessage(c, c.Param("id"),
		middleware.CurrentUserID(c), middleware.CurrentUserName(c), req.Text)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(message, "Message sent successfully"))
}

// GetMessages returns the ordered message thread of a request
func (ctrl *RequestController) GetMessages(c *gin.Context) {
	messages, err := ctrl.exchangeService.GetMessages(c, c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(messages, "Messages retrieved successfully"))
}
