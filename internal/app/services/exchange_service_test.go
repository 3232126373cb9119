package services_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
	"github.com/hydrashare/backend/internal/pkg/websocket"
	"github.com/hydrashare/backend/internal/store"
)

func setupExchangeTest(t *testing.T) (services.ExchangeService, *store.MemoryStore, context.Context) {
	t.Helper()
	docStore := store.NewMemoryStore()
	t.Cleanup(func() { _ = docStore.Close() })
	hub := websocket.NewHub(zerolog.Nop())
	exchange := services.NewExchangeService(docStore, hub, zerolog.Nop())
	return exchange, docStore, context.Background()
}

func seedResource(t *testing.T, docStore *store.MemoryStore, ctx context.Context, id, ownerID string) {
	t.Helper()
	require.NoError(t, docStore.Write(ctx, "resources/"+id, models.Resource{
		ID:      id,
		Title:   "Physics Lab Kit",
		OwnerID: ownerID,
		Status:  models.ResourceAvailable,
	}))
}

func TestCreateRequestStartsPending(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "Is this still available?")
	require.NoError(t, err)

	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, "r1", request.ResourceID)
	assert.Equal(t, "u2", request.RequesterID)
	require.Len(t, request.Messages, 1)
	assert.Equal(t, int64(1), request.Messages[0].Seq)
	assert.Equal(t, "Is this still available?", request.Messages[0].Text)
}

func TestCreateRequestOwnResourceRejected(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	_, err := exchange.CreateRequest(ctx, "r1", "owner", "Owner", "hello")
	assert.ErrorIs(t, err, apperrors.ErrOwnResource)
}

func TestCreateRequestMissingResource(t *testing.T) {
	exchange, _, ctx := setupExchangeTest(t)

	_, err := exchange.CreateRequest(ctx, "ghost", "u2", "Baran", "hello")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestAcceptRequest(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)

	require.NoError(t, exchange.AcceptRequest(ctx, request.ID, "owner"))

	got, err := exchange.GetRequest(ctx, request.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, got.Status)

	// Accepting again is a no-op
	require.NoError(t, exchange.AcceptRequest(ctx, request.ID, "owner"))
}

func TestAcceptByNonOwnerForbidden(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)

	err = exchange.AcceptRequest(ctx, request.ID, "u2")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDenyRequestIsTerminal(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)

	require.NoError(t, exchange.DenyRequest(ctx, request.ID, "owner"))

	got, err := exchange.GetRequest(ctx, request.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, got.Status)

	// Denying again is a no-op, accepting a rejected request fails
	require.NoError(t, exchange.DenyRequest(ctx, request.ID, "owner"))
	err = exchange.AcceptRequest(ctx, request.ID, "owner")
	assert.ErrorIs(t, err, apperrors.ErrRequestClosed)
}

func TestDenyAcceptedRequestFails(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)
	require.NoError(t, exchange.AcceptRequest(ctx, request.ID, "owner"))

	err = exchange.DenyRequest(ctx, request.ID, "owner")
	assert.ErrorIs(t, err, apperrors.ErrRequestClosed)
}

func TestTransitionMissingRequest(t *testing.T) {
	exchange, _, ctx := setupExchangeTest(t)

	err := exchange.AcceptRequest(ctx, "ghost", "owner")
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestPostMessageSequencing(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "first")
	require.NoError(t, err)

	reply, err := exchange.PostMessage(ctx, request.ID, "owner", "Aylin", "second")
	require.NoError(t, err)
	assert.Equal(t, int64(2), reply.Seq)

	third, err := exchange.PostMessage(ctx, request.ID, "u2", "Baran", "third")
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.Seq)

	messages, err := exchange.GetMessages(ctx, request.ID, "u2")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"first", "second", "third"}, messageTexts(messages))
}

func TestPostMessageByStranger(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	request, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)

	_, err = exchange.PostMessage(ctx, request.ID, "stranger", "Eve", "hi")
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}

func TestThreadOrderingIgnoresTimestampSkew(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")

	// Later sequence numbers carry earlier timestamps; ordering must follow
	// seq. The legacy entry without one sorts by timestamp ahead of them.
	require.NoError(t, docStore.Write(ctx, "requests/req1", models.ShareRequest{
		ID:          "req1",
		ResourceID:  "r1",
		RequesterID: "u2",
		Status:      models.RequestPending,
		LastSeq:     3,
		Messages: map[string]models.ChatMessage{
			"m1": {ID: "m1", Text: "newest-clock", Seq: 3, Timestamp: 100},
			"m2": {ID: "m2", Text: "oldest-clock", Seq: 1, Timestamp: 900},
			"m3": {ID: "m3", Text: "mid", Seq: 2, Timestamp: 500},
			"m4": {ID: "m4", Text: "legacy", Timestamp: 50},
		},
	}))

	messages, err := exchange.GetMessages(ctx, "req1", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy", "oldest-clock", "mid", "newest-clock"}, messageTexts(messages))
}

func TestListRequestsForParties(t *testing.T) {
	exchange, docStore, ctx := setupExchangeTest(t)
	seedResource(t, docStore, ctx, "r1", "owner")
	seedResource(t, docStore, ctx, "r2", "someoneElse")

	mine, err := exchange.CreateRequest(ctx, "r1", "u2", "Baran", "hello")
	require.NoError(t, err)
	_, err = exchange.CreateRequest(ctx, "r2", "u3", "Cem", "hi there")
	require.NoError(t, err)

	asRequester, err := exchange.ListRequests(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, asRequester, 1)
	assert.Equal(t, mine.ID, asRequester[0].ID)

	asOwner, err := exchange.ListRequests(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, asOwner, 1)
	assert.Equal(t, mine.ID, asOwner[0].ID)

	asStranger, err := exchange.ListRequests(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, asStranger)
}

func messageTexts(messages []dto.MessageResponse) []string {
	out := make([]string, len(messages))
	for i, msg := range messages {
		out[i] = msg.Text
	}
	return out
}
