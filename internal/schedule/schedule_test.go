package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsExcludeLunchHour(t *testing.T) {
	slots := Slots()

	// 9:00-12:50 and 14:00-17:50, six slots per hour.
	assert.Len(t, slots, 8*6)
	assert.Equal(t, "9:00 AM", slots[0])
	assert.Equal(t, "5:50 PM", slots[len(slots)-1])

	for _, slot := range slots {
		hour, _, err := ParseSlot(slot)
		require.NoError(t, err)
		assert.NotEqual(t, LunchHour, hour, "lunch slot %q should not be offered", slot)
	}
}

func TestSlotsTenMinuteGranularity(t *testing.T) {
	for _, slot := range Slots() {
		_, minute, err := ParseSlot(slot)
		require.NoError(t, err)
		assert.Zero(t, minute%10, slot)
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		slot   string
		hour   int
		minute int
	}{
		{"9:00 AM", 9, 0},
		{"9:30 AM", 9, 30},
		{"12:00 PM", 12, 0},
		{"12:50 PM", 12, 50},
		{"2:30 PM", 14, 30},
		{"5:00 PM", 17, 0},
		{"12:10 AM", 0, 10},
	}
	for _, tt := range tests {
		hour, minute, err := ParseSlot(tt.slot)
		require.NoError(t, err, tt.slot)
		assert.Equal(t, tt.hour, hour, tt.slot)
		assert.Equal(t, tt.minute, minute, tt.slot)
	}
}

func TestParseSlotRejectsMalformed(t *testing.T) {
	for _, slot := range []string{"", "9:00", "25:00 PM", "9:61 AM", "9 AM", "nine AM", "9:00 XM"} {
		_, _, err := ParseSlot(slot)
		assert.Error(t, err, slot)
	}
}

func TestIsSlot(t *testing.T) {
	assert.True(t, IsSlot("9:00 AM"))
	assert.True(t, IsSlot("5:50 PM"))
	assert.False(t, IsSlot("8:50 AM"))  // before opening
	assert.False(t, IsSlot("6:00 PM"))  // after closing
	assert.False(t, IsSlot("1:00 PM"))  // lunch gap
	assert.False(t, IsSlot("9:05 AM"))  // off the 10-minute grid
	assert.False(t, IsSlot("garbage"))
}

func TestIsPast(t *testing.T) {
	now := time.Date(2025, time.May, 23, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsPast("2025-05-23", "9:00 AM", now))
	assert.False(t, IsPast("2025-05-23", "2:00 PM", now))
	assert.True(t, IsPast("2025-05-22", "5:50 PM", now))
	assert.False(t, IsPast("2025-05-24", "9:00 AM", now))
	// Unparseable input is handled by the caller's own validation.
	assert.False(t, IsPast("05/23/2025", "9:00 AM", now))
}
