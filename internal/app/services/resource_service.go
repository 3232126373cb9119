package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/app/scoring"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
	"github.com/hydrashare/backend/internal/pkg/validation"
	"github.com/hydrashare/backend/internal/store"
)

// ResourceService defines the interface for resource listing operations
type ResourceService interface {
	Create(ctx context.Context, ownerID, ownerName, college string, req *dto.CreateResourceRequest) (*dto.ResourceResponse, error)
	Update(ctx context.Context, resourceID, ownerID string, req *dto.UpdateResourceRequest) (*dto.ResourceResponse, error)
	Delete(ctx context.Context, resourceID, ownerID string) error
	List(ctx context.Context, query *dto.ListResourcesQuery) ([]dto.ResourceResponse, error)
	Get(ctx context.Context, resourceID string) (*dto.ResourceResponse, error)
	AddComment(ctx context.Context, resourceID, userID, userName, text string) (*dto.CommentResponse, error)
	Rate(ctx context.Context, resourceID, raterID string, score int) error
	IncrementView(ctx context.Context, resourceID string) error
	IncrementDownload(ctx context.Context, resourceID string) error
	UpdateStatus(ctx context.Context, resourceID, ownerID string, status models.ResourceStatus) error
}

// resourceServiceImpl implements ResourceService
type resourceServiceImpl struct {
	store  store.Store
	ledger LedgerService
	logger zerolog.Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(docStore store.Store, ledger LedgerService, logger zerolog.Logger) ResourceService {
	return &resourceServiceImpl{
		store:  docStore,
		ledger: ledger,
		logger: logger,
	}
}

// Create lists a new resource and awards the owner the upload points
func (s *resourceServiceImpl) Create(
	ctx context.Context,
	ownerID, ownerName, college string,
	req *dto.CreateResourceRequest,
) (*dto.ResourceResponse, error) {
	if !validation.ValidCategory(req.Category) {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Unknown category %q", req.Category))
	}

	resource := models.Resource{
		ID:          store.NewPushKey(),
		Title:       req.Title,
		Description: req.Description,
		Category:    models.Category(req.Category),
		Genre:       req.Genre,
		ImageURL:    req.ImageURL,
		DocumentURL: req.DocumentURL,
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		College:     college,
		Status:      models.ResourceAvailable,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if resource.Category != models.CategoryBooks {
		resource.Genre = ""
	}

	if err := s.store.Write(ctx, "resources/"+resource.ID, resource); err != nil {
		s.logger.Error().Err(err).
			Str("ownerID", ownerID).
			Str("title", req.Title).
			Msg("Failed to create resource")
		return nil, apperrors.NewWriteFailureError(err, "Failed to create resource")
	}

	if _, err := s.ledger.AwardPoints(ctx, ownerID, 10, models.StatUploads, models.BadgeCheckUpload); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("resourceID", resource.ID).
		Str("ownerID", ownerID).
		Msg("Resource created")

	response := newResourceResponse(&resource, true)
	return &response, nil
}

// Update applies the owner's edits to a listing. Empty request fields are
// left unchanged.
func (s *resourceServiceImpl) Update(
	ctx context.Context,
	resourceID, ownerID string,
	req *dto.UpdateResourceRequest,
) (*dto.ResourceResponse, error) {
	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if resource.OwnerID != ownerID {
		return nil, apperrors.NewForbiddenError("Only the owner can edit a resource")
	}

	if req.Category != "" {
		if !validation.ValidCategory(req.Category) {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("Unknown category %q", req.Category))
		}
		resource.Category = models.Category(req.Category)
	}
	if req.Title != "" {
		resource.Title = req.Title
	}
	if req.Description != "" {
		resource.Description = req.Description
	}
	if req.Genre != "" {
		resource.Genre = req.Genre
	}
	if req.ImageURL != "" {
		resource.ImageURL = req.ImageURL
	}
	if req.DocumentURL != "" {
		resource.DocumentURL = req.DocumentURL
	}
	if resource.Category != models.CategoryBooks {
		resource.Genre = ""
	}

	if err := s.store.Merge(ctx, "resources/"+resourceID, map[string]interface{}{
		"title":       resource.Title,
		"description": resource.Description,
		"category":    resource.Category,
		"genre":       resource.Genre,
		"imageUrl":    resource.ImageURL,
		"documentUrl": resource.DocumentURL,
	}); err != nil {
		s.logger.Error().Err(err).
			Str("resourceID", resourceID).
			Msg("Failed to update resource")
		return nil, apperrors.NewWriteFailureError(err, "Failed to update resource")
	}

	s.logger.Info().
		Str("resourceID", resourceID).
		Str("ownerID", ownerID).
		Msg("Resource updated")

	response := newResourceResponse(resource, true)
	return &response, nil
}

// Delete removes a listing together with its comments and ratings. Points
// already awarded for it stay on the ledger.
func (s *resourceServiceImpl) Delete(ctx context.Context, resourceID, ownerID string) error {
	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if resource.OwnerID != ownerID {
		return apperrors.NewForbiddenError("Only the owner can delete a resource")
	}

	if err := s.store.Delete(ctx, "resources/"+resourceID); err != nil {
		s.logger.Error().Err(err).
			Str("resourceID", resourceID).
			Msg("Failed to delete resource")
		return apperrors.NewWriteFailureError(err, "Failed to delete resource")
	}

	s.logger.Info().
		Str("resourceID", resourceID).
		Str("ownerID", ownerID).
		Msg("Resource deleted")
	return nil
}

// List returns resources matching the filters, ranked by the sort mode.
// Filtering and ranking run in memory over the collection read.
func (s *resourceServiceImpl) List(ctx context.Context, query *dto.ListResourcesQuery) ([]dto.ResourceResponse, error) {
	var docs map[string]models.Resource
	if err := s.store.Read(ctx, "resources", &docs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []dto.ResourceResponse{}, nil
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load resources")
	}

	needle := strings.ToLower(strings.TrimSpace(query.Query))
	resources := make([]models.Resource, 0, len(docs))
	for id, resource := range docs {
		resource.ID = id
		if query.Category != "" && string(resource.Category) != query.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(resource.Title), needle) &&
			!strings.Contains(strings.ToLower(resource.Description), needle) {
			continue
		}
		resources = append(resources, resource)
	}

	// Canonical base order before the stable ranking sort, so equal keys
	// resolve the same way on every call
	sort.SliceStable(resources, func(i, j int) bool {
		if resources[i].CreatedAt != resources[j].CreatedAt {
			return resources[i].CreatedAt > resources[j].CreatedAt
		}
		return resources[i].ID < resources[j].ID
	})

	mode := scoring.SortMode(query.Sort)
	if mode == "" {
		mode = scoring.SortNewest
	}
	scoring.SortResources(resources, mode)

	out := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		out = append(out, newResourceResponse(&resources[i], false))
	}
	return out, nil
}

// Get returns one resource with its comments
func (s *resourceServiceImpl) Get(ctx context.Context, resourceID string) (*dto.ResourceResponse, error) {
	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	response := newResourceResponse(resource, true)
	return &response, nil
}

// AddComment appends a comment and awards the author the comment point
func (s *resourceServiceImpl) AddComment(
	ctx context.Context,
	resourceID, userID, userName, text string,
) (*dto.CommentResponse, error) {
	if _, err := s.loadResource(ctx, resourceID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	commentID := store.NewPushKey()

	if err := s.store.Write(ctx, "resources/"+resourceID+"/comments/"+commentID, comment); err != nil {
		s.logger.Error().Err(err).
			Str("resourceID", resourceID).
			Str("userID", userID).
			Msg("Failed to store comment")
		return nil, apperrors.NewWriteFailureError(err, "Failed to store comment")
	}

	if _, err := s.ledger.AwardPoints(ctx, userID, 1, models.StatComments, models.BadgeCheckComment); err != nil {
		return nil, err
	}

	return &dto.CommentResponse{
		ID:        commentID,
		UserID:    comment.UserID,
		UserName:  comment.UserName,
		Text:      comment.Text,
		Timestamp: comment.Timestamp,
	}, nil
}

// Rate stores the rater's score, overwriting any earlier one, and awards
// both sides their rating points
func (s *resourceServiceImpl) Rate(ctx context.Context, resourceID, raterID string, score int) error {
	if !validation.ValidRating(score) {
		return apperrors.NewCustomError(apperrors.ErrRatingOutOfRange, "Rating must be between 1 and 5")
	}

	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if resource.OwnerID == raterID {
		return apperrors.NewConflictError(apperrors.ErrOwnResource, "Cannot rate your own resource")
	}

	if err := s.store.Write(ctx, "resources/"+resourceID+"/ratings/"+raterID, score); err != nil {
		s.logger.Error().Err(err).
			Str("resourceID", resourceID).
			Str("raterID", raterID).
			Msg("Failed to store rating")
		return apperrors.NewWriteFailureError(err, "Failed to store rating")
	}

	if _, err := s.ledger.AwardPoints(ctx, raterID, 1, models.StatRatingsGiven, models.BadgeCheckRating); err != nil {
		return err
	}
	if _, err := s.ledger.AwardPoints(ctx, resource.OwnerID, 2, models.StatRatingsReceived, models.BadgeCheckNone); err != nil {
		return err
	}
	return nil
}

// IncrementView bumps the view counter atomically
func (s *resourceServiceImpl) IncrementView(ctx context.Context, resourceID string) error {
	return s.incrementCounter(ctx, resourceID, "viewCount", false)
}

// IncrementDownload bumps the download counter. Only resources with a
// document attachment carry one.
func (s *resourceServiceImpl) IncrementDownload(ctx context.Context, resourceID string) error {
	return s.incrementCounter(ctx, resourceID, "downloadCount", true)
}

func (s *resourceServiceImpl) incrementCounter(ctx context.Context, resourceID, field string, needsDocument bool) error {
	err := s.store.Update(ctx, "resources/"+resourceID, func(current json.RawMessage) (interface{}, error) {
		if current == nil {
			return nil, apperrors.NewResourceNotFoundError("Resource not found")
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode resource %s: %w", resourceID, err)
		}
		if needsDocument {
			if url, _ := doc["documentUrl"].(string); url == "" {
				return nil, apperrors.NewBadRequestError("Resource has no document attachment")
			}
		}
		count, _ := doc[field].(float64)
		doc[field] = count + 1
		return doc, nil
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrBadRequest) {
			return err
		}
		return apperrors.NewWriteFailureError(err, "Failed to update counter")
	}
	return nil
}

// UpdateStatus flips a resource between available and borrowed. Owner only.
func (s *resourceServiceImpl) UpdateStatus(ctx context.Context, resourceID, ownerID string, status models.ResourceStatus) error {
	if !validation.ValidStatus(string(status)) {
		return apperrors.NewBadRequestError(fmt.Sprintf("Unknown status %q", status))
	}

	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if resource.OwnerID != ownerID {
		return apperrors.NewForbiddenError("Only the owner can change a resource's status")
	}

	if err := s.store.Merge(ctx, "resources/"+resourceID, map[string]interface{}{
		"status": status,
	}); err != nil {
		return apperrors.NewWriteFailureError(err, "Failed to update status")
	}

	s.logger.Info().
		Str("resourceID", resourceID).
		Str("status", string(status)).
		Msg("Resource status updated")
	return nil
}

func (s *resourceServiceImpl) loadResource(ctx context.Context, resourceID string) (*models.Resource, error) {
	var resource models.Resource
	if err := s.store.Read(ctx, "resources/"+resourceID, &resource); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Resource not found")
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load resource")
	}
	resource.ID = resourceID
	return &resource, nil
}

// newResourceResponse maps a resource to its API shape with derived scores.
// Comments are included only on detail reads.
func newResourceResponse(resource *models.Resource, withComments bool) dto.ResourceResponse {
	response := dto.ResourceResponse{
		ID:            resource.ID,
		Title:         resource.Title,
		Description:   resource.Description,
		Category:      resource.Category,
		Genre:         resource.Genre,
		ImageURL:      resource.ImageURL,
		DocumentURL:   resource.DocumentURL,
		OwnerID:       resource.OwnerID,
		OwnerName:     resource.OwnerName,
		College:       resource.College,
		Status:        resource.Status,
		CreatedAt:     resource.CreatedAt,
		ViewCount:     resource.ViewCount,
		DownloadCount: resource.DownloadCount,
		RatingCount:   len(resource.Ratings),
		AverageRating: scoring.AverageRating(resource),
		CommentCount:  scoring.CommentCount(resource),
		Popularity:    scoring.Popularity(resource),
	}

	if withComments {
		comments := make([]dto.CommentResponse, 0, len(resource.Comments))
		for id, comment := range resource.Comments {
			comments = append(comments, dto.CommentResponse{
				ID:        id,
				UserID:    comment.UserID,
				UserName:  comment.UserName,
				Text:      comment.Text,
				Timestamp: comment.Timestamp,
			})
		}
		sort.SliceStable(comments, func(i, j int) bool {
			if comments[i].Timestamp != comments[j].Timestamp {
				return comments[i].Timestamp < comments[j].Timestamp
			}
			return comments[i].ID < comments[j].ID
		})
		response.Comments = comments
	}
	return response
}
