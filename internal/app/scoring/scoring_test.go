package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/scoring"
)

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		points int
		tier   string
	}{
		{0, scoring.TierBronzeIII},
		{24, scoring.TierBronzeIII},
		{25, scoring.TierBronzeII},
		{49, scoring.TierBronzeII},
		{50, scoring.TierBronzeI},
		{74, scoring.TierBronzeI},
		{75, scoring.TierSilverIII},
		{124, scoring.TierSilverIII},
		{125, scoring.TierSilverII},
		{174, scoring.TierSilverII},
		{175, scoring.TierSilverI},
		{249, scoring.TierSilverI},
		{250, scoring.TierGoldIII},
		{349, scoring.TierGoldIII},
		{350, scoring.TierGoldII},
		{499, scoring.TierGoldII},
		{500, scoring.TierGoldI},
		{10000, scoring.TierGoldI},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, scoring.Tier(tc.points), "points=%d", tc.points)
	}
}

func TestAverageRatingEmpty(t *testing.T) {
	resource := &models.Resource{}
	assert.Zero(t, scoring.AverageRating(resource))
}

func TestAverageRating(t *testing.T) {
	resource := &models.Resource{
		Ratings: map[string]int{"u1": 4, "u2": 5, "u3": 3},
	}
	assert.InDelta(t, 4.0, scoring.AverageRating(resource), 1e-9)
}

func TestPopularity(t *testing.T) {
	// 3 ratings averaging 4, 3 comments: 3*5 + 4*10 + 3*2 = 61
	resource := &models.Resource{
		Ratings: map[string]int{"u1": 4, "u2": 5, "u3": 3},
		Comments: map[string]models.Comment{
			"c1": {Text: "a"},
			"c2": {Text: "b"},
			"c3": {Text: "c"},
		},
	}
	assert.InDelta(t, 61.0, scoring.Popularity(resource), 1e-9)
}

func TestPopularityEmptyResource(t *testing.T) {
	assert.Zero(t, scoring.Popularity(&models.Resource{}))
}

func TestSortNewest(t *testing.T) {
	resources := []models.Resource{
		{ID: "old", CreatedAt: 100},
		{ID: "new", CreatedAt: 300},
		{ID: "mid", CreatedAt: 200},
	}
	scoring.SortResources(resources, scoring.SortNewest)
	assert.Equal(t, []string{"new", "mid", "old"}, ids(resources))
}

func TestSortRatingStable(t *testing.T) {
	// a and c tie on average rating; input order must survive
	resources := []models.Resource{
		{ID: "a", Ratings: map[string]int{"u1": 4}},
		{ID: "b", Ratings: map[string]int{"u1": 5}},
		{ID: "c", Ratings: map[string]int{"u1": 4}},
		{ID: "d"},
	}
	scoring.SortResources(resources, scoring.SortRating)
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(resources))
}

func TestSortComments(t *testing.T) {
	resources := []models.Resource{
		{ID: "quiet"},
		{ID: "busy", Comments: map[string]models.Comment{"c1": {}, "c2": {}}},
		{ID: "calm", Comments: map[string]models.Comment{"c1": {}}},
	}
	scoring.SortResources(resources, scoring.SortComments)
	assert.Equal(t, []string{"busy", "calm", "quiet"}, ids(resources))
}

func TestSortPopularity(t *testing.T) {
	resources := []models.Resource{
		{ID: "plain"},
		{ID: "rated", Ratings: map[string]int{"u1": 5}}, // 5 + 50 = 55
		{ID: "discussed", Comments: map[string]models.Comment{
			"c1": {}, "c2": {}, "c3": {},
		}}, // 6
	}
	scoring.SortResources(resources, scoring.SortPopularity)
	assert.Equal(t, []string{"rated", "discussed", "plain"}, ids(resources))
}

func ids(resources []models.Resource) []string {
	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = r.ID
	}
	return out
}
