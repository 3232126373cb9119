package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
)

// HandleAPIError maps service errors to the structured error envelope
func HandleAPIError(c *gin.Context, err error) {
	message := err.Error()
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		message = custom.Message
	}

	respond := func(status int, code dto.ErrorCode) {
		detail := dto.NewErrorDetail(code, message)
		if custom != nil && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		c.JSON(status, dto.NewErrorResponse(detail))
	}

	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		respond(http.StatusNotFound, dto.ErrorCodeResourceNotFound)
	case errors.Is(err, apperrors.ErrUserNotFound):
		respond(http.StatusNotFound, dto.ErrorCodeUserNotFound)
	case errors.Is(err, apperrors.ErrRequestNotFound):
		respond(http.StatusNotFound, dto.ErrorCodeRequestNotFound)
	case errors.Is(err, apperrors.ErrOwnResource):
		respond(http.StatusConflict, dto.ErrorCodeOwnResource)
	case errors.Is(err, apperrors.ErrRequestClosed):
		respond(http.StatusConflict, dto.ErrorCodeRequestClosed)
	case errors.Is(err, apperrors.ErrNotParticipant):
		respond(http.StatusForbidden, dto.ErrorCodeNotParticipant)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respond(http.StatusForbidden, dto.ErrorCodeUnauthorized)
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		respond(http.StatusConflict, dto.ErrorCodeEmailExists)
	case errors.Is(err, apperrors.ErrRatingOutOfRange):
		respond(http.StatusBadRequest, dto.ErrorCodeRatingOutOfRange)
	case errors.Is(err, apperrors.ErrBadRequest),
		errors.Is(err, apperrors.ErrValidationFailed):
		respond(http.StatusBadRequest, dto.ErrorCodeValidationFailed)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respond(http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials)
	case errors.Is(err, apperrors.ErrTokenExpired):
		respond(http.StatusUnauthorized, dto.ErrorCodeExpiredToken)
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respond(http.StatusUnauthorized, dto.ErrorCodeInvalidToken)
	case errors.Is(err, apperrors.ErrWriteFailure):
		respond(http.StatusInternalServerError, dto.ErrorCodeStoreError)
	default:
		message = "Internal server error"
		respond(http.StatusInternalServerError, dto.ErrorCodeInternalServer)
	}
}

// HandleValidationError maps a gin binding error to a 400 response
func HandleValidationError(c *gin.Context, err error) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
		WithDetails(err.Error())
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
