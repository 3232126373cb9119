package models

// Category classifies a listed resource
type Category string

const (
	CategoryBooks        Category = "Books"
	CategoryNotes        Category = "Notes"
	CategoryLabEquipment Category = "Lab Equipment"
	CategoryElectronics  Category = "Electronics"
	CategoryOthers       Category = "Others"
)

// Categories lists every valid resource category
var Categories = []Category{
	CategoryBooks,
	CategoryNotes,
	CategoryLabEquipment,
	CategoryElectronics,
	CategoryOthers,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ResourceStatus tracks a resource's availability
type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "available"
	ResourceBorrowed  ResourceStatus = "borrowed"
)

// Comment is an append-only entry under a resource's comments map
type Comment struct {
	UserID    string `json:"userId"`    // Author of the comment
	UserName  string `json:"userName"`  // Author display name at write time
	Text      string `json:"text"`      // Comment body
	Timestamp int64  `json:"timestamp"` // Unix millis at creation
}

// Resource defines the resource document stored at resources/{resourceId}
type Resource struct {
	ID            string             `json:"id" example:"r_41ab"`                  // Unique identifier for the resource
	Title         string             `json:"title" example:"Calculus II Notes"`    // Listing title
	Description   string             `json:"description"`                          // Free-text description
	Category      Category           `json:"category" example:"Notes"`             // Resource category
	Genre         string             `json:"genre,omitempty" example:"Textbooks"`  // Optional genre, Books only
	ImageURL      string             `json:"imageUrl"`                             // Cover or photo URL
	DocumentURL   string             `json:"documentUrl,omitempty"`                // Optional document attachment URL
	OwnerID       string             `json:"ownerId"`                              // Listing owner
	OwnerName     string             `json:"ownerName"`                            // Owner display name at listing time
	College       string             `json:"college" example:"Engineering"`        // Owner's college at listing time
	Status        ResourceStatus     `json:"status" example:"available"`           // available or borrowed
	CreatedAt     int64              `json:"createdAt" example:"1714060800000"`    // Unix millis at creation
	ViewCount     int                `json:"viewCount"`                            // Times the listing was opened
	DownloadCount int                `json:"downloadCount"`                        // Attachment downloads, document resources only
	Ratings       map[string]int     `json:"ratings,omitempty"`                    // raterId -> 1..5, later ratings overwrite
	Comments      map[string]Comment `json:"comments,omitempty"`                   // commentId -> comment, append-only
}
