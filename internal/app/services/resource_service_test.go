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
	"github.com/hydrashare/backend/internal/pkg/events"
	"github.com/hydrashare/backend/internal/store"
)

func setupResourceTest(t *testing.T) (services.ResourceService, *store.MemoryStore, context.Context) {
	t.Helper()
	docStore := store.NewMemoryStore()
	t.Cleanup(func() { _ = docStore.Close() })
	ledger := services.NewLedgerService(docStore, events.NewBadgeBus(), zerolog.Nop())
	resources := services.NewResourceService(docStore, ledger, zerolog.Nop())
	return resources, docStore, context.Background()
}

func createListing(t *testing.T, svc services.ResourceService, ctx context.Context, ownerID, title string) *dto.ResourceResponse {
	t.Helper()
	resource, err := svc.Create(ctx, ownerID, "Owner "+ownerID, "Engineering", &dto.CreateResourceRequest{
		Title:    title,
		Category: "Books",
	})
	require.NoError(t, err)
	return resource
}

func TestCreateResourceAwardsUpload(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})

	resource := createListing(t, resources, ctx, "owner", "Linear Algebra")
	assert.Equal(t, models.ResourceAvailable, resource.Status)
	assert.NotEmpty(t, resource.ID)

	owner := readUser(t, docStore, ctx, "owner")
	assert.Equal(t, 10, owner.Points)
	assert.Equal(t, 1, owner.Stats.Uploads)
	assert.True(t, owner.Badges[models.BadgeFirstUpload])
}

func TestCreateResourceUnknownCategory(t *testing.T) {
	resources, _, ctx := setupResourceTest(t)

	_, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:    "Mystery Box",
		Category: "Vehicles",
	})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestGenreKeptOnlyForBooks(t *testing.T) {
	resources, _, ctx := setupResourceTest(t)

	listing, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:    "Oscilloscope",
		Category: "Electronics",
		Genre:    "Textbooks",
	})
	require.NoError(t, err)
	assert.Empty(t, listing.Genre)
}

func TestCommentAwardsAuthor(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "author"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	comment, err := resources.AddComment(ctx, listing.ID, "author", "Cem", "Very useful")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	author := readUser(t, docStore, ctx, "author")
	assert.Equal(t, 1, author.Points)
	assert.Equal(t, 1, author.Stats.Comments)

	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Very useful", got.Comments[0].Text)
	assert.Equal(t, 1, got.CommentCount)
}

func TestRateAwardsBothSides(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	seedUser(t, docStore, ctx, models.User{ID: "rater"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	require.NoError(t, resources.Rate(ctx, listing.ID, "rater", 4))

	rater := readUser(t, docStore, ctx, "rater")
	assert.Equal(t, 1, rater.Points)
	assert.Equal(t, 1, rater.Stats.RatingsGiven)

	owner := readUser(t, docStore, ctx, "owner")
	assert.Equal(t, 12, owner.Points) // 10 upload + 2 rating received
	assert.Equal(t, 1, owner.Stats.RatingsReceived)

	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)
}

func TestRateOwnResourceRejected(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	err := resources.Rate(ctx, listing.ID, "owner", 5)
	assert.ErrorIs(t, err, apperrors.ErrOwnResource)
}

func TestRateOverwritesEarlierScore(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	seedUser(t, docStore, ctx, models.User{ID: "rater"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	require.NoError(t, resources.Rate(ctx, listing.ID, "rater", 2))
	require.NoError(t, resources.Rate(ctx, listing.ID, "rater", 5))

	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)
	assert.InDelta(t, 5.0, got.AverageRating, 1e-9)
}

func TestRateOutOfRange(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	assert.ErrorIs(t, resources.Rate(ctx, listing.ID, "rater", 0), apperrors.ErrRatingOutOfRange)
	assert.ErrorIs(t, resources.Rate(ctx, listing.ID, "rater", 6), apperrors.ErrRatingOutOfRange)
}

func TestViewCounter(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	require.NoError(t, resources.IncrementView(ctx, listing.ID))
	require.NoError(t, resources.IncrementView(ctx, listing.ID))

	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
}

func TestDownloadCounterNeedsDocument(t *testing.T) {
	resources, _, ctx := setupResourceTest(t)

	withDoc, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:       "Lecture Slides",
		Category:    "Notes",
		DocumentURL: "https://files.example/slides.pdf",
	})
	require.NoError(t, err)
	require.NoError(t, resources.IncrementDownload(ctx, withDoc.ID))

	withoutDoc, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:    "Stapler",
		Category: "Others",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, resources.IncrementDownload(ctx, withoutDoc.ID), apperrors.ErrBadRequest)
}

func TestUpdateStatusOwnerOnly(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	err := resources.UpdateStatus(ctx, listing.ID, "stranger", models.ResourceBorrowed)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	require.NoError(t, resources.UpdateStatus(ctx, listing.ID, "owner", models.ResourceBorrowed))
	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceBorrowed, got.Status)
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	err := resources.UpdateStatus(ctx, listing.ID, "owner", models.ResourceStatus("lost"))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestUpdateResourceOwnerEdits(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Old Title")

	updated, err := resources.Update(ctx, listing.ID, "owner", &dto.UpdateResourceRequest{
		Title:       "New Title",
		Description: "Second edition",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "Second edition", updated.Description)

	got, err := resources.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)
	// Untouched fields survive the edit
	assert.Equal(t, models.CategoryBooks, got.Category)
	assert.Equal(t, "owner", got.OwnerID)
}

func TestUpdateResourceCategoryChangeClearsGenre(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})

	listing, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:    "Calculus",
		Category: "Books",
		Genre:    "Textbooks",
	})
	require.NoError(t, err)

	updated, err := resources.Update(ctx, listing.ID, "owner", &dto.UpdateResourceRequest{
		Category: "Notes",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryNotes, updated.Category)
	assert.Empty(t, updated.Genre)
}

func TestUpdateResourceNotOwner(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	_, err := resources.Update(ctx, listing.ID, "stranger", &dto.UpdateResourceRequest{Title: "Hijacked"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = resources.Update(ctx, "missing", "owner", &dto.UpdateResourceRequest{Title: "Nope"})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestUpdateResourceUnknownCategory(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	_, err := resources.Update(ctx, listing.ID, "owner", &dto.UpdateResourceRequest{Category: "Vehicles"})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestDeleteResourceOwnerOnly(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	listing := createListing(t, resources, ctx, "owner", "Notes")

	assert.ErrorIs(t, resources.Delete(ctx, listing.ID, "stranger"), apperrors.ErrPermissionDenied)

	require.NoError(t, resources.Delete(ctx, listing.ID, "owner"))
	_, err := resources.Get(ctx, listing.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	listed, err := resources.List(ctx, &dto.ListResourcesQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Upload points stay on the ledger after the listing is gone
	owner := readUser(t, docStore, ctx, "owner")
	assert.Equal(t, 10, owner.Points)
}

func TestDeleteResourceMissing(t *testing.T) {
	resources, _, ctx := setupResourceTest(t)
	assert.ErrorIs(t, resources.Delete(ctx, "missing", "owner"), apperrors.ErrResourceNotFound)
}

func TestListFiltersAndSorts(t *testing.T) {
	resources, docStore, ctx := setupResourceTest(t)
	seedUser(t, docStore, ctx, models.User{ID: "owner"})
	seedUser(t, docStore, ctx, models.User{ID: "rater"})

	books := createListing(t, resources, ctx, "owner", "Organic Chemistry")
	notes, err := resources.Create(ctx, "owner", "Owner", "Engineering", &dto.CreateResourceRequest{
		Title:    "Thermodynamics Notes",
		Category: "Notes",
	})
	require.NoError(t, err)
	require.NoError(t, resources.Rate(ctx, notes.ID, "rater", 5))

	byCategory, err := resources.List(ctx, &dto.ListResourcesQuery{Category: "Books"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, books.ID, byCategory[0].ID)

	bySearch, err := resources.List(ctx, &dto.ListResourcesQuery{Query: "thermo"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, notes.ID, bySearch[0].ID)

	byRating, err := resources.List(ctx, &dto.ListResourcesQuery{Sort: "rating"})
	require.NoError(t, err)
	require.Len(t, byRating, 2)
	assert.Equal(t, notes.ID, byRating[0].ID)

	empty, err := resources.List(ctx, &dto.ListResourcesQuery{Query: "nothing matches this"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
