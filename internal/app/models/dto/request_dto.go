package dto

import "github.com/hydrashare/backend/internal/app/models"

// CreateShareRequest opens a request with its first chat message
type CreateShareRequest struct {
	ResourceID string `json:"resourceId" binding:"required"`
	Message    string `json:"message" binding:"required,min=1,max=1000"`
}

// PostMessageRequest carries a chat message body
type PostMessageRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

// MessageResponse is one chat message as returned by the API
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	Seq        int64  `json:"seq"`
}

// ShareRequestResponse is a request as returned by the API, messages in
// thread order
type ShareRequestResponse struct {
	ID            string               `json:"id"`
	ResourceID    string               `json:"resourceId"`
	RequesterID   string               `json:"requesterId"`
	RequesterName string               `json:"requesterName"`
	Status        models.RequestStatus `json:"status"`
	Timestamp     int64                `json:"timestamp"`
	Messages      []MessageResponse    `json:"messages"`
}

// NewMessageResponse maps a chat message to its API shape
func NewMessageResponse(msg models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       msg.Text,
		Timestamp:  msg.Timestamp,
		Seq:        msg.Seq,
	}
}
