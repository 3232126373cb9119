package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/services"
	"github.com/hydrashare/backend/internal/pkg/events"
	"github.com/hydrashare/backend/internal/store"
)

func setupLedgerTest(t *testing.T) (services.LedgerService, *store.MemoryStore, *events.BadgeBus, context.Context) {
	t.Helper()
	docStore := store.NewMemoryStore()
	t.Cleanup(func() { _ = docStore.Close() })
	badgeBus := events.NewBadgeBus()
	ledger := services.NewLedgerService(docStore, badgeBus, zerolog.Nop())
	return ledger, docStore, badgeBus, context.Background()
}

func seedUser(t *testing.T, docStore *store.MemoryStore, ctx context.Context, user models.User) {
	t.Helper()
	if user.Tier == "" {
		user.Tier = "Bronze III"
	}
	if user.Badges == nil {
		user.Badges = map[string]bool{}
	}
	require.NoError(t, docStore.Write(ctx, "users/"+user.ID, user))
}

func readUser(t *testing.T, docStore *store.MemoryStore, ctx context.Context, id string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, docStore.Read(ctx, "users/"+id, &user))
	return user
}

func TestAwardUploadToFreshUser(t *testing.T) {
	ledger, docStore, badgeBus, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1", Name: "Aylin"})

	var published []events.BadgeUnlocked
	badgeBus.Subscribe(func(e events.BadgeUnlocked) { published = append(published, e) })

	badge, err := ledger.AwardPoints(ctx, "u1", 10, models.StatUploads, models.BadgeCheckUpload)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeFirstUpload, badge)

	user := readUser(t, docStore, ctx, "u1")
	assert.Equal(t, 10, user.Points)
	assert.Equal(t, "Bronze III", user.Tier)
	assert.Equal(t, 1, user.Stats.Uploads)
	assert.True(t, user.Badges[models.BadgeFirstUpload])

	require.Len(t, published, 1)
	assert.Equal(t, events.BadgeUnlocked{UserID: "u1", Badge: models.BadgeFirstUpload, Points: 10}, published[0])
}

func TestBadgeAwardedOnlyOnce(t *testing.T) {
	ledger, docStore, badgeBus, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1"})

	var published []events.BadgeUnlocked
	badgeBus.Subscribe(func(e events.BadgeUnlocked) { published = append(published, e) })

	_, err := ledger.AwardPoints(ctx, "u1", 10, models.StatUploads, models.BadgeCheckUpload)
	require.NoError(t, err)
	badge, err := ledger.AwardPoints(ctx, "u1", 10, models.StatUploads, models.BadgeCheckUpload)
	require.NoError(t, err)

	assert.Empty(t, badge)
	assert.Len(t, published, 1)
	assert.Equal(t, 2, readUser(t, docStore, ctx, "u1").Stats.Uploads)
}

func TestTenCommentsBadgeNeedsTenth(t *testing.T) {
	ledger, docStore, _, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1"})

	for i := 0; i < 9; i++ {
		badge, err := ledger.AwardPoints(ctx, "u1", 1, models.StatComments, models.BadgeCheckComment)
		require.NoError(t, err)
		assert.Empty(t, badge)
	}

	badge, err := ledger.AwardPoints(ctx, "u1", 1, models.StatComments, models.BadgeCheckComment)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeTenComments, badge)

	user := readUser(t, docStore, ctx, "u1")
	assert.Equal(t, 10, user.Stats.Comments)
	assert.True(t, user.Badges[models.BadgeTenComments])
}

func TestTenRatingsGivenBadge(t *testing.T) {
	ledger, docStore, _, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{
		ID:    "u1",
		Stats: models.UserStats{RatingsGiven: 9},
	})

	badge, err := ledger.AwardPoints(ctx, "u1", 1, models.StatRatingsGiven, models.BadgeCheckRating)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeTenRatingsGiven, badge)
}

func TestHundredPointsClubWithoutBadgeCheck(t *testing.T) {
	ledger, docStore, _, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1", Points: 99, Tier: "Bronze I"})

	badge, err := ledger.AwardPoints(ctx, "u1", 2, models.StatRatingsReceived, models.BadgeCheckNone)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeHundredPoints, badge)

	user := readUser(t, docStore, ctx, "u1")
	assert.Equal(t, 101, user.Points)
	assert.Equal(t, "Silver III", user.Tier)
	assert.Equal(t, 1, user.Stats.RatingsReceived)
}

func TestHundredPointsClubReportedLast(t *testing.T) {
	ledger, docStore, badgeBus, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1", Points: 95, Tier: "Bronze I"})

	var published []events.BadgeUnlocked
	badgeBus.Subscribe(func(e events.BadgeUnlocked) { published = append(published, e) })

	// First upload crossing 100 points unlocks both badges in one award
	badge, err := ledger.AwardPoints(ctx, "u1", 10, models.StatUploads, models.BadgeCheckUpload)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeHundredPoints, badge)

	user := readUser(t, docStore, ctx, "u1")
	assert.True(t, user.Badges[models.BadgeFirstUpload])
	assert.True(t, user.Badges[models.BadgeHundredPoints])

	require.Len(t, published, 2)
	assert.Equal(t, models.BadgeFirstUpload, published[0].Badge)
	assert.Equal(t, models.BadgeHundredPoints, published[1].Badge)
}

func TestAwardMissingUserIsNoOp(t *testing.T) {
	ledger, docStore, badgeBus, ctx := setupLedgerTest(t)

	var published []events.BadgeUnlocked
	badgeBus.Subscribe(func(e events.BadgeUnlocked) { published = append(published, e) })

	badge, err := ledger.AwardPoints(ctx, "ghost", 10, models.StatUploads, models.BadgeCheckUpload)
	require.NoError(t, err)
	assert.Empty(t, badge)
	assert.Empty(t, published)

	var out map[string]interface{}
	assert.ErrorIs(t, docStore.Read(ctx, "users/ghost", &out), store.ErrNotFound)
}

func TestConcurrentAwardsLoseNoUpdates(t *testing.T) {
	ledger, docStore, _, ctx := setupLedgerTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "u1"})

	const workers = 25
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.AwardPoints(ctx, "u1", 1, models.StatComments, models.BadgeCheckNone)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user := readUser(t, docStore, ctx, "u1")
	assert.Equal(t, workers, user.Points)
	assert.Equal(t, workers, user.Stats.Comments)
	assert.Equal(t, "Bronze II", user.Tier)
}
