package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsMorning(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)

	assert.True(t, IsMorning(time.Date(2026, 1, 5, 0, 0, 0, 0, loc)))
	assert.True(t, IsMorning(time.Date(2026, 1, 5, 11, 59, 59, 0, loc)))
	assert.False(t, IsMorning(time.Date(2026, 1, 5, 12, 0, 0, 0, loc)))
	assert.False(t, IsMorning(time.Date(2026, 1, 5, 17, 1, 0, 0, loc)))
}

func TestIsWeekend(t *testing.T) {
	loc := time.UTC

	// 2026-01-05 là thứ 2
	for day := 5; day <= 9; day++ {
		assert.False(t, IsWeekend(time.Date(2026, 1, day, 10, 0, 0, 0, loc)), "day %d", day)
	}
	assert.True(t, IsWeekend(time.Date(2026, 1, 10, 10, 0, 0, 0, loc)))
	assert.True(t, IsWeekend(time.Date(2026, 1, 11, 10, 0, 0, 0, loc)))
}

func TestFirstOfMonth(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	got := FirstOfMonth(time.Date(2026, 2, 17, 15, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, loc), got)
}
