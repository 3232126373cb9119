package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ParticipantChecker reports whether a user is a party to a request thread.
// A non-nil error denies the connection.
type ParticipantChecker func(ctx context.Context, requestID, userID string) error

// Handler for WebSocket connections
type Handler struct {
	hub              *Hub
	checkParticipant ParticipantChecker
	logger           zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, checkParticipant ParticipantChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:              hub,
		checkParticipant: checkParticipant,
		logger:           logger,
	}
}

// HandleConnection upgrades the HTTP connection and attaches it to the
// request thread named in the path. The caller must be the requester or the
// resource owner.
func (h *Handler) HandleConnection(c *gin.Context) {
	requestID := c.Param("id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request ID",
		})
		return
	}

	// Set by the auth middleware
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in context",
		})
		return
	}
	userID, ok := userIDValue.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid user ID format",
		})
		return
	}

	if err := h.checkParticipant(c, requestID, userID); err != nil {
		h.logger.Warn().
			Err(err).
			Str("requestID", requestID).
			Str("userID", userID).
			Msg("WebSocket connection denied")
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("requestID", requestID).
			Str("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    userID,
		requestID: requestID,
		logger:    h.logger,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("requestID", requestID).
		Str("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
