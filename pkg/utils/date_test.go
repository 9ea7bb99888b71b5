package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameUTCDay(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, SameUTCDay(base, base.Add(11*time.Hour)))
	assert.False(t, SameUTCDay(base, base.Add(13*time.Hour)))
	assert.False(t, SameUTCDay(base, base.AddDate(0, 0, -1)))

	// Comparison happens in UTC regardless of the input zone.
	east := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2025, 3, 11, 8, 0, 0, 0, east) // 2025-03-10 23:00 UTC
	assert.True(t, SameUTCDay(base, local))
}
