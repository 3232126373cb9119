package models

// RequestStatus tracks a share request through its lifecycle
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Closed reports whether the status is terminal for denial. Accepted requests
// stay open for chat but cannot be denied anymore.
func (s RequestStatus) Closed() bool {
	return s == RequestAccepted || s == RequestRejected
}

// ChatMessage is one entry in a request's message thread. Thread order is by
// Seq ascending; Timestamp is kept for display and as a legacy fallback.
type ChatMessage struct {
	ID         string `json:"id"`         // Message identifier
	SenderID   string `json:"senderId"`   // Authoring user
	SenderName string `json:"senderName"` // Sender display name at send time
	Text       string `json:"text"`       // Message body
	Timestamp  int64  `json:"timestamp"`  // Unix millis at send time
	Seq        int64  `json:"seq"`        // Per-thread monotonic sequence number
}

// ShareRequest defines the request document stored at requests/{requestId}
type ShareRequest struct {
	ID            string                 `json:"id"`            // Unique identifier for the request
	ResourceID    string                 `json:"resourceId"`    // Requested resource
	RequesterID   string                 `json:"requesterId"`   // Requesting user
	RequesterName string                 `json:"requesterName"` // Requester display name at creation
	Status        RequestStatus          `json:"status"`        // pending, accepted or rejected
	Timestamp     int64                  `json:"timestamp"`     // Unix millis at creation
	LastSeq       int64                  `json:"lastSeq"`       // Highest message sequence number issued
	Messages      map[string]ChatMessage `json:"messages,omitempty"` // messageId -> message, append-only
}
