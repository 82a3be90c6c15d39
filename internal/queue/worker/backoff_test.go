package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffGrowth(t *testing.T) {
	// jitter adds up to 250ms, so compare against the floor
	assert.GreaterOrEqual(t, ExponentialBackoff(0), 2*time.Second)
	assert.GreaterOrEqual(t, ExponentialBackoff(1), 4*time.Second)
	assert.GreaterOrEqual(t, ExponentialBackoff(2), 8*time.Second)
}

func TestExponentialBackoffCap(t *testing.T) {
	for _, attempt := range []int{10, 30, 63, 1000} {
		d := ExponentialBackoff(attempt)
		assert.LessOrEqual(t, d, 5*time.Minute+250*time.Millisecond, "attempt %d", attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
	}
}
