package validation

import (
	"regexp"

	"github.com/hydrashare/backend/internal/app/models"
)

// Validation rule patterns
var (
	// Email validation pattern - configurable
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`

	// Password min length
	PasswordMinLength = 8

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 100

	// Rating score bounds
	RatingMin = 1
	RatingMax = 5
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
}

// ValidEmail reports whether the email matches the configured pattern
func ValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}

// ValidRating reports whether a rating score is within bounds
func ValidRating(score int) bool {
	return score >= RatingMin && score <= RatingMax
}

// ValidCategory reports whether the category is one of the known ones
func ValidCategory(category string) bool {
	return models.Category(category).IsValid()
}

// ValidStatus reports whether the status is a known resource status
func ValidStatus(status string) bool {
	s := models.ResourceStatus(status)
	return s == models.ResourceAvailable || s == models.ResourceBorrowed
}
