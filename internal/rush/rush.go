// Package rush classifies store congestion per date and time slot. The
// classification is display-only: it never gates a booking.
package rush

import (
	"stationery-store/internal/schedule"
)

// Status is a congestion level for a time slot.
type Status string

const (
	High   Status = "high"
	Medium Status = "medium"
	Low    Status = "low"
)

// IsValid reports whether s is a known status.
func IsValid(s string) bool {
	switch Status(s) {
	case High, Medium, Low:
		return true
	}
	return false
}

// DefaultStatus is the computed fallback used when no explicit entry
// exists for a (date, slot) pair. It is a pure function of the slot's
// 24-hour form and is the single source of the rule for both the
// storefront and the admin views: morning hours are the busy ones,
// noon and mid-afternoon moderately so.
func DefaultStatus(hour24 int) Status {
	switch {
	case hour24 >= 9 && hour24 <= 11:
		return High
	case hour24 == 12 || (hour24 >= 14 && hour24 <= 15):
		return Medium
	default:
		return Low
	}
}

// DefaultForSlot applies DefaultStatus to a slot label. Malformed labels
// classify as Low, matching the rule's catch-all branch.
func DefaultForSlot(slot string) Status {
	hour, _, err := schedule.ParseSlot(slot)
	if err != nil {
		return Low
	}
	return DefaultStatus(hour)
}

// Resolve returns the status for a slot given any explicit overrides for
// the date: a stored entry always wins over the computed default.
func Resolve(overrides map[string]Status, slot string) Status {
	if s, ok := overrides[slot]; ok {
		return s
	}
	return DefaultForSlot(slot)
}
