// Package scoring holds the pure ranking math: derived resource scores, the
// points-to-tier table and the stable listing sorts. Nothing here touches the
// store; derived values are recomputed on every read and never persisted.
package scoring

import (
	"sort"

	"github.com/hydrashare/backend/internal/app/models"
)

// Tier names, highest first
const (
	TierGoldI     = "Gold I"
	TierGoldII    = "Gold II"
	TierGoldIII   = "Gold III"
	TierSilverI   = "Silver I"
	TierSilverII  = "Silver II"
	TierSilverIII = "Silver III"
	TierBronzeI   = "Bronze I"
	TierBronzeII  = "Bronze II"
	TierBronzeIII = "Bronze III"
)

type tierThreshold struct {
	min  int
	name string
}

var tierTable = []tierThreshold{
	{500, TierGoldI},
	{350, TierGoldII},
	{250, TierGoldIII},
	{175, TierSilverI},
	{125, TierSilverII},
	{75, TierSilverIII},
	{50, TierBronzeI},
	{25, TierBronzeII},
}

// Tier maps a points total to its tier name
func Tier(points int) string {
	for _, t := range tierTable {
		if points >= t.min {
			return t.name
		}
	}
	return TierBronzeIII
}

// AverageRating is the mean of a resource's rating scores, 0 when unrated
func AverageRating(resource *models.Resource) float64 {
	if len(resource.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, score := range resource.Ratings {
		sum += score
	}
	return float64(sum) / float64(len(resource.Ratings))
}

// CommentCount is the number of comments on a resource
func CommentCount(resource *models.Resource) int {
	return len(resource.Comments)
}

// Popularity combines rating volume, rating quality and discussion activity
// into one score: ratings*5 + average*10 + comments*2.
func Popularity(resource *models.Resource) float64 {
	return float64(len(resource.Ratings))*5 +
		AverageRating(resource)*10 +
		float64(CommentCount(resource))*2
}

// SortMode selects a listing order
type SortMode string

const (
	SortNewest     SortMode = "newest"
	SortRating     SortMode = "rating"
	SortComments   SortMode = "comments"
	SortPopularity SortMode = "popularity"
)

// SortResources orders resources in place by the given mode. Every sort is
// descending on its key and stable, so resources with equal keys keep their
// input order.
func SortResources(resources []models.Resource, mode SortMode) {
	switch mode {
	case SortRating:
		sort.SliceStable(resources, func(i, j int) bool {
			return AverageRating(&resources[i]) > AverageRating(&resources[j])
		})
	case SortComments:
		sort.SliceStable(resources, func(i, j int) bool {
			return CommentCount(&resources[i]) > CommentCount(&resources[j])
		})
	case SortPopularity:
		sort.SliceStable(resources, func(i, j int) bool {
			return Popularity(&resources[i]) > Popularity(&resources[j])
		})
	default:
		sort.SliceStable(resources, func(i, j int) bool {
			return resources[i].CreatedAt > resources[j].CreatedAt
		})
	}
}
