// Package schedule produces the pickup time-slot labels offered by the
// store: 10-minute slots between the opening and closing hour, skipping
// the lunch hour. Labels use 12-hour form with an AM/PM suffix, for
// example "9:00 AM" or "2:30 PM".
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Store hours. The lunch hour is excluded from the slot grid.
const (
	OpeningHour = 9
	ClosingHour = 17
	LunchHour   = 13

	slotMinutes = 10
)

// Slots returns every available slot label in display order.
func Slots() []string {
	slots := make([]string, 0, (ClosingHour-OpeningHour)*60/slotMinutes)
	for hour := OpeningHour; hour <= ClosingHour; hour++ {
		if hour == LunchHour {
			continue
		}
		for minute := 0; minute < 60; minute += slotMinutes {
			slots = append(slots, Label(hour, minute))
		}
	}
	return slots
}

// Label formats an hour (24-hour form) and minute as a slot label.
func Label(hour24, minute int) string {
	ampm := "AM"
	if hour24 >= 12 {
		ampm = "PM"
	}
	display := hour24
	if hour24 > 12 {
		display = hour24 - 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, ampm)
}

// ParseSlot converts a slot label to 24-hour form.
func ParseSlot(slot string) (hour24, minute int, err error) {
	fields := strings.Fields(slot)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed time slot: %q", slot)
	}

	suffix := strings.ToUpper(fields[1])
	if suffix != "AM" && suffix != "PM" {
		return 0, 0, fmt.Errorf("malformed time slot: %q", slot)
	}

	hm := strings.SplitN(fields[0], ":", 2)
	if len(hm) != 2 {
		return 0, 0, fmt.Errorf("malformed time slot: %q", slot)
	}

	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("malformed time slot: %q", slot)
	}
	minute, err = strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed time slot: %q", slot)
	}

	switch {
	case suffix == "PM" && hour != 12:
		hour += 12
	case suffix == "AM" && hour == 12:
		hour = 0
	}
	return hour, minute, nil
}

// IsSlot reports whether slot is one of the labels the store offers.
func IsSlot(slot string) bool {
	hour, minute, err := ParseSlot(slot)
	if err != nil {
		return false
	}
	if hour < OpeningHour || hour > ClosingHour || hour == LunchHour {
		return false
	}
	return minute%slotMinutes == 0
}

// IsPast reports whether the slot on the given date has already started.
// Only same-day slots can be in the past; future dates are never past.
func IsPast(date string, slot string, now time.Time) bool {
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return false
	}
	// ISO dates compare correctly as strings.
	switch d, today := day.Format("2006-01-02"), now.Format("2006-01-02"); {
	case d < today:
		return true
	case d > today:
		return false
	}
	hour, minute, err := ParseSlot(slot)
	if err != nil {
		return false
	}
	slotTime := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	return slotTime.Before(now)
}
