package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
	"github.com/hydrashare/backend/internal/pkg/websocket"
	"github.com/hydrashare/backend/internal/store"
)

// ExchangeService defines the interface for share request operations
type ExchangeService interface {
	CreateRequest(ctx context.Context, resourceID, requesterID, requesterName, firstMessage string) (*dto.ShareRequestResponse, error)
	AcceptRequest(ctx context.Context, requestID, actorID string) error
	DenyRequest(ctx context.Context, requestID, actorID string) error
	PostMessage(ctx context.Context, requestID, senderID, senderName, text string) (*dto.MessageResponse, error)
	GetRequest(ctx context.Context, requestID, userID string) (*dto.ShareRequestResponse, error)
	GetMessages(ctx context.Context, requestID, userID string) ([]dto.MessageResponse, error)
	ListRequests(ctx context.Context, userID string) ([]dto.ShareRequestResponse, error)
	EnsureParticipant(ctx context.Context, requestID, userID string) error
}

// exchangeServiceImpl implements ExchangeService
type exchangeServiceImpl struct {
	store  store.Store
	wsHub  *websocket.Hub
	logger zerolog.Logger
}

// NewExchangeService creates a new ExchangeService
func NewExchangeService(docStore store.Store, wsHub *websocket.Hub, logger zerolog.Logger) ExchangeService {
	return &exchangeServiceImpl{
		store:  docStore,
		wsHub:  wsHub,
		logger: logger,
	}
}

// CreateRequest opens a request in pending state with its first chat message
func (s *exchangeServiceImpl) CreateRequest(
	ctx context.Context,
	resourceID, requesterID, requesterName, firstMessage string,
) (*dto.ShareRequestResponse, error) {
	var resource models.Resource
	if err := s.store.Read(ctx, "resources/"+resourceID, &resource); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Resource not found")
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load resource")
	}

	if resource.OwnerID == requesterID {
		return nil, apperrors.NewConflictError(apperrors.ErrOwnResource, "Cannot request your own resource")
	}

	now := time.Now().UnixMilli()
	requestID := store.NewPushKey()
	messageID := store.NewPushKey()

	request := models.ShareRequest{
		ID:            requestID,
		ResourceID:    resourceID,
		RequesterID:   requesterID,
		RequesterName: requesterName,
		Status:        models.RequestPending,
		Timestamp:     now,
		LastSeq:       1,
		Messages: map[string]models.ChatMessage{
			messageID: {
				ID:         messageID,
				SenderID:   requesterID,
				SenderName: requesterName,
				Text:       firstMessage,
				Timestamp:  now,
				Seq:        1,
			},
		},
	}

	if err := s.store.Write(ctx, "requests/"+requestID, request); err != nil {
		s.logger.Error().Err(err).
			Str("resourceID", resourceID).
			Str("requesterID", requesterID).
			Msg("Failed to create request")
		return nil, apperrors.NewWriteFailureError(err, "Failed to create request")
	}

	s.logger.Info().
		Str("requestID", requestID).
		Str("resourceID", resourceID).
		Str("requesterID", requesterID).
		Msg("Share request created")

	response := newRequestResponse(&request)
	return &response, nil
}

// AcceptRequest moves a pending request to accepted. Accepting twice is a
// no-op; a rejected request stays rejected.
func (s *exchangeServiceImpl) AcceptRequest(ctx context.Context, requestID, actorID string) error {
	return s.transition(ctx, requestID, actorID, models.RequestAccepted)
}

// DenyRequest moves a pending request to rejected. Denying twice is a no-op;
// an accepted request cannot be denied.
func (s *exchangeServiceImpl) DenyRequest(ctx context.Context, requestID, actorID string) error {
	return s.transition(ctx, requestID, actorID, models.RequestRejected)
}

func (s *exchangeServiceImpl) transition(ctx context.Context, requestID, actorID string, target models.RequestStatus) error {
	// Ownership never changes after listing, so the actor check can run
	// before the atomic status update
	existing, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	ownerID, err := s.resourceOwner(ctx, existing.ResourceID)
	if err != nil {
		return err
	}
	if actorID != ownerID {
		return apperrors.NewForbiddenError("Only the resource owner can decide a request")
	}

	changed := false
	err = s.store.Update(ctx, "requests/"+requestID, func(current json.RawMessage) (interface{}, error) {
		changed = false
		if current == nil {
			return nil, apperrors.NewCustomError(apperrors.ErrRequestNotFound, "Request not found")
		}

		var request models.ShareRequest
		if err := json.Unmarshal(current, &request); err != nil {
			return nil, fmt.Errorf("failed to decode request %s: %w", requestID, err)
		}

		switch {
		case request.Status == target:
			return request, nil
		case request.Status != models.RequestPending:
			return nil, apperrors.NewConflictError(apperrors.ErrRequestClosed,
				fmt.Sprintf("Request is already %s", request.Status))
		}

		request.Status = target
		changed = true
		return request, nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrRequestNotFound, apperrors.ErrRequestClosed, apperrors.ErrPermissionDenied, apperrors.ErrResourceNotFound) {
			return err
		}
		s.logger.Error().Err(err).
			Str("requestID", requestID).
			Str("target", string(target)).
			Msg("Failed to update request status")
		return apperrors.NewWriteFailureError(err, "Failed to update request")
	}

	if changed {
		s.logger.Info().
			Str("requestID", requestID).
			Str("status", string(target)).
			Msg("Request status changed")
		s.wsHub.BroadcastToThread(&websocket.Event{
			Type:      websocket.EventStatus,
			RequestID: requestID,
			Payload:   target,
		})
	}
	return nil
}

// PostMessage appends a chat message to the thread. The sequence number is
// assigned inside the same atomic update that stores the message.
func (s *exchangeServiceImpl) PostMessage(
	ctx context.Context,
	requestID, senderID, senderName, text string,
) (*dto.MessageResponse, error) {
	existing, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, existing, senderID); err != nil {
		return nil, err
	}

	var message models.ChatMessage

	err = s.store.Update(ctx, "requests/"+requestID, func(current json.RawMessage) (interface{}, error) {
		if current == nil {
			return nil, apperrors.NewCustomError(apperrors.ErrRequestNotFound, "Request not found")
		}

		var request models.ShareRequest
		if err := json.Unmarshal(current, &request); err != nil {
			return nil, fmt.Errorf("failed to decode request %s: %w", requestID, err)
		}

		request.LastSeq++
		message = models.ChatMessage{
			ID:         store.NewPushKey(),
			SenderID:   senderID,
			SenderName: senderName,
			Text:       text,
			Timestamp:  time.Now().UnixMilli(),
			Seq:        request.LastSeq,
		}
		if request.Messages == nil {
			request.Messages = make(map[string]models.ChatMessage)
		}
		request.Messages[message.ID] = message
		return request, nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrRequestNotFound, apperrors.ErrNotParticipant, apperrors.ErrPermissionDenied) {
			return nil, err
		}
		s.logger.Error().Err(err).
			Str("requestID", requestID).
			Str("senderID", senderID).
			Msg("Failed to post message")
		return nil, apperrors.NewWriteFailureError(err, "Failed to post message")
	}

	response := dto.NewMessageResponse(message)
	s.wsHub.BroadcastToThread(&websocket.Event{
		Type:      websocket.EventMessage,
		RequestID: requestID,
		Payload:   response,
	})
	return &response, nil
}

// GetRequest returns one request with its thread in order
func (s *exchangeServiceImpl) GetRequest(ctx context.Context, requestID, userID string) (*dto.ShareRequestResponse, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, request, userID); err != nil {
		return nil, err
	}
	response := newRequestResponse(request)
	return &response, nil
}

// GetMessages returns the ordered message thread of a request
func (s *exchangeServiceImpl) GetMessages(ctx context.Context, requestID, userID string) ([]dto.MessageResponse, error) {
	response, err := s.GetRequest(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	return response.Messages, nil
}

// ListRequests returns every request the user is a party to, newest first
func (s *exchangeServiceImpl) ListRequests(ctx context.Context, userID string) ([]dto.ShareRequestResponse, error) {
	var requests map[string]models.ShareRequest
	if err := s.store.Read(ctx, "requests", &requests); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []dto.ShareRequestResponse{}, nil
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load requests")
	}

	owned := s.ownedResources(ctx, userID)

	out := make([]dto.ShareRequestResponse, 0)
	for id, request := range requests {
		request.ID = id
		if request.RequesterID != userID && !owned[request.ResourceID] {
			continue
		}
		out = append(out, newRequestResponse(&request))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

// EnsureParticipant reports whether the user is the requester or the owner of
// the requested resource
func (s *exchangeServiceImpl) EnsureParticipant(ctx context.Context, requestID, userID string) error {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.ensureParticipant(ctx, request, userID)
}

func (s *exchangeServiceImpl) loadRequest(ctx context.Context, requestID string) (*models.ShareRequest, error) {
	var request models.ShareRequest
	if err := s.store.Read(ctx, "requests/"+requestID, &request); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrRequestNotFound, "Request not found")
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load request")
	}
	request.ID = requestID
	return &request, nil
}

func (s *exchangeServiceImpl) ensureParticipant(ctx context.Context, request *models.ShareRequest, userID string) error {
	if request.RequesterID == userID {
		return nil
	}
	ownerID, err := s.resourceOwner(ctx, request.ResourceID)
	if err == nil && ownerID == userID {
		return nil
	}
	return apperrors.NewConflictError(apperrors.ErrNotParticipant, "Not a party to this request")
}

func (s *exchangeServiceImpl) resourceOwner(ctx context.Context, resourceID string) (string, error) {
	var ownerID string
	if err := s.store.Read(ctx, "resources/"+resourceID+"/ownerId", &ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperrors.NewResourceNotFoundError("Resource not found")
		}
		return "", err
	}
	return ownerID, nil
}

// ownedResources collects the IDs of the user's resources for participation
// checks over a whole listing
func (s *exchangeServiceImpl) ownedResources(ctx context.Context, userID string) map[string]bool {
	var resources map[string]struct {
		OwnerID string `json:"ownerId"`
	}
	owned := make(map[string]bool)
	if err := s.store.Read(ctx, "resources", &resources); err != nil {
		return owned
	}
	for id, resource := range resources {
		if resource.OwnerID == userID {
			owned[id] = true
		}
	}
	return owned
}

// newRequestResponse maps a request to its API shape with the thread ordered
// by sequence number, timestamp as the legacy fallback
func newRequestResponse(request *models.ShareRequest) dto.ShareRequestResponse {
	messages := make([]dto.MessageResponse, 0, len(request.Messages))
	for id, msg := range request.Messages {
		if msg.ID == "" {
			msg.ID = id
		}
		messages = append(messages, dto.NewMessageResponse(msg))
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Seq != messages[j].Seq {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].Timestamp < messages[j].Timestamp
	})

	return dto.ShareRequestResponse{
		ID:            request.ID,
		ResourceID:    request.ResourceID,
		RequesterID:   request.RequesterID,
		RequesterName: request.RequesterName,
		Status:        request.Status,
		Timestamp:     request.Timestamp,
		Messages:      messages,
	}
}
