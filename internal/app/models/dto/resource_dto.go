package dto

import "github.com/hydrashare/backend/internal/app/models"

// CreateResourceRequest carries a new listing payload
type CreateResourceRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=150" example:"Calculus II Notes"`
	Description string `json:"description" binding:"max=2000"`
	Category    string `json:"category" binding:"required" example:"Notes"`
	Genre       string `json:"genre" binding:"max=60" example:"Textbooks"`
	ImageURL    string `json:"imageUrl" binding:"max=500"`
	DocumentURL string `json:"documentUrl" binding:"max=500"`
}

// UpdateResourceRequest carries the owner's edits to a listing. Empty
// fields are left unchanged.
type UpdateResourceRequest struct {
	Title       string `json:"title" binding:"omitempty,min=2,max=150" example:"Calculus II Notes"`
	Description string `json:"description" binding:"max=2000"`
	Category    string `json:"category" binding:"omitempty" example:"Notes"`
	Genre       string `json:"genre" binding:"max=60" example:"Textbooks"`
	ImageURL    string `json:"imageUrl" binding:"max=500"`
	DocumentURL string `json:"documentUrl" binding:"max=500"`
}

// CommentRequest carries a new comment body
type CommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}

// RateRequest carries a rating submission
type RateRequest struct {
	Score int `json:"score" binding:"required,min=1,max=5" example:"4"`
}

// UpdateStatusRequest flips a resource's availability
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available borrowed" example:"borrowed"`
}

// ListResourcesQuery binds the listing query parameters
type ListResourcesQuery struct {
	Sort     string `form:"sort,default=newest" binding:"omitempty,oneof=newest rating comments popularity"`
	Category string `form:"category"`
	Query    string `form:"q"`
}

// CommentResponse is one comment as returned by the API
type CommentResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// ResourceResponse is a listing plus its derived scores
type ResourceResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      models.Category       `json:"category"`
	Genre         string                `json:"genre,omitempty"`
	ImageURL      string                `json:"imageUrl"`
	DocumentURL   string                `json:"documentUrl,omitempty"`
	OwnerID       string                `json:"ownerId"`
	OwnerName     string                `json:"ownerName"`
	College       string                `json:"college"`
	Status        models.ResourceStatus `json:"status"`
	CreatedAt     int64                 `json:"createdAt"`
	ViewCount     int                   `json:"viewCount"`
	DownloadCount int                   `json:"downloadCount"`
	RatingCount   int                   `json:"ratingCount"`
	AverageRating float64               `json:"averageRating"`
	CommentCount  int                   `json:"commentCount"`
	Popularity    float64               `json:"popularity"`
	Comments      []CommentResponse     `json:"comments,omitempty"`
}
