package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRetryDelayDoublesUpToCap(t *testing.T) {
	delay := listenRetryMin
	seen := []time.Duration{delay}
	for i := 0; i < 8; i++ {
		delay = nextRetryDelay(delay)
		seen = append(seen, delay)
	}
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
		30 * time.Second, 30 * time.Second,
	}, seen)
}
