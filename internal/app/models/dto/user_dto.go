package dto

import (
	"sort"

	"github.com/hydrashare/backend/internal/app/models"
)

// ProfileResponse is the user profile as returned by the API
type ProfileResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	College   string           `json:"college"`
	Points    int              `json:"points"`
	Tier      string           `json:"tier"`
	Badges    []string         `json:"badges"`
	Stats     models.UserStats `json:"stats"`
	CreatedAt int64            `json:"createdAt"`
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	College string `json:"college" binding:"required,max=100" example:"Engineering"`
}

// NewProfileResponse maps a user document to its API shape. Badge names are
// flattened to a list; the password hash never leaves the service layer.
func NewProfileResponse(user *models.User) ProfileResponse {
	badges := make([]string, 0, len(user.Badges))
	for name, earned := range user.Badges {
		if earned {
			badges = append(badges, name)
		}
	}
	sort.Strings(badges)
	return ProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		College:   user.College,
		Points:    user.Points,
		Tier:      user.Tier,
		Badges:    badges,
		Stats:     user.Stats,
		CreatedAt: user.CreatedAt,
	}
}
