package models

// Badge names awarded by the reputation ledger
const (
	BadgeFirstUpload     = "First Upload"
	BadgeTenComments     = "10 Comments"
	BadgeTenRatingsGiven = "10 Ratings Given"
	BadgeHundredPoints   = "100 Points Club"
)

// StatKey identifies a user activity counter
type StatKey string

const (
	StatUploads         StatKey = "uploads"
	StatComments        StatKey = "comments"
	StatRatingsGiven    StatKey = "ratingsGiven"
	StatRatingsReceived StatKey = "ratingsReceived"
)

// BadgeCheck selects which badge predicates an award evaluates
type BadgeCheck string

const (
	BadgeCheckNone    BadgeCheck = ""
	BadgeCheckUpload  BadgeCheck = "upload"
	BadgeCheckComment BadgeCheck = "comment"
	BadgeCheckRating  BadgeCheck = "rating"
)

// UserStats holds the per-user activity counters. Each counter only ever
// increases.
type UserStats struct {
	Uploads         int `json:"uploads"`         // Resources listed by the user
	Comments        int `json:"comments"`        // Comments the user has written
	RatingsGiven    int `json:"ratingsGiven"`    // Ratings the user has submitted
	RatingsReceived int `json:"ratingsReceived"` // Ratings received on the user's resources
}

// User defines the user document stored at users/{userId}
type User struct {
	ID           string          `json:"id" example:"u_9f2c"`                 // Unique identifier for the user
	Name         string          `json:"name" example:"Aylin Demir"`          // Display name
	Email        string          `json:"email" example:"aylin@school.edu.tr"` // User's email address
	PasswordHash string          `json:"passwordHash,omitempty"`              // Bcrypt hash, stripped from API responses
	College      string          `json:"college" example:"Engineering"`       // College or faculty the user belongs to
	Points       int             `json:"points" example:"35"`                 // Reputation points, monotone non-decreasing
	Tier         string          `json:"tier" example:"Bronze II"`            // Tier derived from points
	Badges       map[string]bool `json:"badges"`                              // Earned badge names, each at most once
	Stats        UserStats       `json:"stats"`                               // Activity counters
	CreatedAt    int64           `json:"createdAt" example:"1714060800000"`   // Unix millis at registration
}

// Stat returns the counter named by key
func (s UserStats) Stat(key StatKey) int {
	switch key {
	case StatUploads:
		return s.Uploads
	case StatComments:
		return s.Comments
	case StatRatingsGiven:
		return s.RatingsGiven
	case StatRatingsReceived:
		return s.RatingsReceived
	default:
		return 0
	}
}

// Increment bumps the counter named by key by one
func (s *UserStats) Increment(key StatKey) {
	switch key {
	case StatUploads:
		s.Uploads++
	case StatComments:
		s.Comments++
	case StatRatingsGiven:
		s.RatingsGiven++
	case StatRatingsReceived:
		s.RatingsReceived++
	}
}
