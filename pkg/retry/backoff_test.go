package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoffDuration(t *testing.T) {
	initial := 1 * time.Second
	max := 10 * time.Second

	assert.Equal(t, 1*time.Second, CalculateBackoffDuration(0, initial, 2, max))
	assert.Equal(t, 2*time.Second, CalculateBackoffDuration(1, initial, 2, max))
	assert.Equal(t, 4*time.Second, CalculateBackoffDuration(2, initial, 2, max))
	assert.Equal(t, 8*time.Second, CalculateBackoffDuration(3, initial, 2, max))
}

func TestCalculateBackoffDurationCapsAtMax(t *testing.T) {
	initial := 1 * time.Second
	max := 10 * time.Second

	assert.Equal(t, max, CalculateBackoffDuration(4, initial, 2, max))
	assert.Equal(t, max, CalculateBackoffDuration(30, initial, 2, max))
}
