package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/scoring"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
	"github.com/hydrashare/backend/internal/pkg/events"
	"github.com/hydrashare/backend/internal/store"
)

// LedgerService defines the interface for reputation ledger operations
type LedgerService interface {
	// AwardPoints applies one award as a single atomic update: points, tier,
	// optional stat increment and badge unlocks commit together. It returns
	// the newly earned badge name, if any (the last one evaluated when
	// several unlock at once). A missing user is a silent no-op.
	AwardPoints(ctx context.Context, userID string, delta int, statKey models.StatKey, badgeCheck models.BadgeCheck) (string, error)
}

// ledgerServiceImpl implements LedgerService
type ledgerServiceImpl struct {
	store    store.Store
	badgeBus *events.BadgeBus
	logger   zerolog.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(docStore store.Store, badgeBus *events.BadgeBus, logger zerolog.Logger) LedgerService {
	return &ledgerServiceImpl{
		store:    docStore,
		badgeBus: badgeBus,
		logger:   logger,
	}
}

func (s *ledgerServiceImpl) AwardPoints(
	ctx context.Context,
	userID string,
	delta int,
	statKey models.StatKey,
	badgeCheck models.BadgeCheck,
) (string, error) {
	var newBadges []string
	var newBadge string
	var pointsAfter int

	err := s.store.Update(ctx, "users/"+userID, func(current json.RawMessage) (interface{}, error) {
		newBadges = nil
		newBadge = ""

		if current == nil {
			s.logger.Debug().
				Str("userID", userID).
				Int("delta", delta).
				Msg("Award skipped, user does not exist")
			return nil, store.ErrNotFound
		}

		var user models.User
		if err := json.Unmarshal(current, &user); err != nil {
			return nil, fmt.Errorf("failed to decode user %s: %w", userID, err)
		}

		user.Points += delta
		user.Tier = scoring.Tier(user.Points)
		if statKey != "" {
			user.Stats.Increment(statKey)
		}
		if user.Badges == nil {
			user.Badges = make(map[string]bool)
		}

		award := func(badge string) {
			if user.Badges[badge] {
				return
			}
			user.Badges[badge] = true
			newBadges = append(newBadges, badge)
			newBadge = badge
		}

		switch badgeCheck {
		case models.BadgeCheckUpload:
			award(models.BadgeFirstUpload)
		case models.BadgeCheckComment:
			if user.Stats.Stat(models.StatComments) >= 10 {
				award(models.BadgeTenComments)
			}
		case models.BadgeCheckRating:
			if user.Stats.Stat(models.StatRatingsGiven) >= 10 {
				award(models.BadgeTenRatingsGiven)
			}
		}
		// Evaluated last on every award regardless of badgeCheck
		if user.Points >= 100 {
			award(models.BadgeHundredPoints)
		}

		pointsAfter = user.Points
		return user, nil
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("userID", userID).
			Int("delta", delta).
			Msg("Failed to commit award")
		return "", apperrors.NewWriteFailureError(err, "Failed to record award")
	}

	for _, badge := range newBadges {
		s.badgeBus.Publish(events.BadgeUnlocked{
			UserID: userID,
			Badge:  badge,
			Points: pointsAfter,
		})
	}

	return newBadge, nil
}
