package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydrashare/backend/internal/pkg/events"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := events.NewBadgeBus()

	var first, second []events.BadgeUnlocked
	bus.Subscribe(func(e events.BadgeUnlocked) { first = append(first, e) })
	bus.Subscribe(func(e events.BadgeUnlocked) { second = append(second, e) })

	event := events.BadgeUnlocked{UserID: "u1", Badge: "First Upload", Points: 10}
	bus.Publish(event)

	assert.Equal(t, []events.BadgeUnlocked{event}, first)
	assert.Equal(t, []events.BadgeUnlocked{event}, second)
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := events.NewBadgeBus()

	var got []events.BadgeUnlocked
	cancel := bus.Subscribe(func(e events.BadgeUnlocked) { got = append(got, e) })

	bus.Publish(events.BadgeUnlocked{UserID: "u1", Badge: "First Upload"})
	cancel()
	bus.Publish(events.BadgeUnlocked{UserID: "u1", Badge: "100 Points Club"})

	assert.Len(t, got, 1)
	assert.Equal(t, "First Upload", got[0].Badge)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBadgeBus()
	assert.NotPanics(t, func() {
		bus.Publish(events.BadgeUnlocked{UserID: "u1", Badge: "First Upload"})
	})
}
