package rush

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStatus(t *testing.T) {
	tests := []struct {
		hour int
		want Status
	}{
		{8, Low},
		{9, High},
		{10, High},
		{11, High},
		{12, Medium},
		{13, Low},
		{14, Medium},
		{15, Medium},
		{16, Low},
		{17, Low},
		{0, Low},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultStatus(tt.hour), "hour %d", tt.hour)
	}
}

func TestDefaultForSlot(t *testing.T) {
	assert.Equal(t, High, DefaultForSlot("9:30 AM"))
	assert.Equal(t, Medium, DefaultForSlot("12:00 PM"))
	assert.Equal(t, Medium, DefaultForSlot("2:30 PM"))
	assert.Equal(t, Low, DefaultForSlot("5:00 PM"))
	assert.Equal(t, Low, DefaultForSlot("not a slot"))
}

func TestDefaultForSlotIsIdempotent(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, High, DefaultForSlot("9:30 AM"))
	}
}

func TestResolveOverrideWins(t *testing.T) {
	overrides := map[string]Status{"9:30 AM": Low}

	assert.Equal(t, Low, Resolve(overrides, "9:30 AM"))
	assert.Equal(t, High, Resolve(overrides, "9:40 AM"))
	assert.Equal(t, High, Resolve(nil, "9:30 AM"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("high"))
	assert.True(t, IsValid("medium"))
	assert.True(t, IsValid("low"))
	assert.False(t, IsValid("HIGH"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("busy"))
}
