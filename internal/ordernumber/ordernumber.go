// Package ordernumber generates and validates human-facing order numbers.
//
// An order number encodes the booking month and year plus a three digit
// sequence component: MM_YYYY_NNN (for example 05_2025_001). The display
// format equals the storage format.
package ordernumber

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

var pattern = regexp.MustCompile(`^\d{2}_\d{4}_\d{3}$`)

// Sequence is the persistent counter capability backing the counter-based
// generator. Next must upsert-and-increment atomically, creating the
// counter at zero if absent.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Generator produces order numbers for a given point in time.
type Generator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// CounterGenerator derives the sequence component from a persistent,
// globally scoped counter (not per month/year). When the counter store is
// unreachable it falls back to the random strategy so checkout never
// blocks on order-number generation.
type CounterGenerator struct {
	seq      Sequence
	fallback RandomGenerator
}

// NewCounterGenerator creates a counter-based generator over seq.
func NewCounterGenerator(seq Sequence) *CounterGenerator {
	return &CounterGenerator{seq: seq}
}

// Next returns the next order number. The generator itself never returns
// an error: a failed counter read falls back to a random component.
func (g *CounterGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	n, err := g.seq.Next(ctx)
	if err != nil {
		return g.fallback.Next(ctx, now)
	}
	// The sequence component is fixed at three digits, so the global
	// counter wraps at 1000.
	return compose(now, int(n%1000)), nil
}

// RandomGenerator derives the sequence component from a pseudo-random
// integer in [100, 999]. Used when no persistent counter is available.
type RandomGenerator struct{}

// Next returns an order number with a random sequence component.
func (RandomGenerator) Next(_ context.Context, now time.Time) (string, error) {
	return compose(now, rand.Intn(900)+100), nil
}

func compose(now time.Time, seq int) string {
	return fmt.Sprintf("%02d_%04d_%03d", int(now.Month()), now.Year(), seq)
}

// Format formats an order number for display. The stored format is the
// display format, so this is the identity transform.
func Format(orderNumber string) string {
	return orderNumber
}

// IsValid reports whether s matches the MM_YYYY_NNN pattern.
func IsValid(s string) bool {
	return pattern.MatchString(s)
}

// Normalize strips whitespace and uppercases user-entered order numbers.
func Normalize(input string) string {
	return strings.ToUpper(strings.Join(strings.Fields(input), ""))
}

// stripped lowercases s and removes underscores and spaces, so searches
// match regardless of separator style.
func stripped(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

// Matches reports whether the order number, customer name or record id of
// a booking matches the search term.
func Matches(term, orderNumber, customerName string, id int64) bool {
	if term == "" {
		return true
	}
	t := stripped(term)
	if strings.Contains(stripped(orderNumber), t) {
		return true
	}
	if strings.Contains(strings.ToLower(customerName), strings.ToLower(term)) {
		return true
	}
	return strings.Contains(fmt.Sprintf("%d", id), t)
}
