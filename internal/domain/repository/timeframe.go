package repository

import "fmt"

// Lookback is how many months of daily history an analysis needs.
type Lookback int

const (
	MinLookback     Lookback = 1
	MaxLookback     Lookback = 24
	DefaultLookback Lookback = 6
)

// IsValid reports whether l is within supported bounds.
func (l Lookback) IsValid() bool { return l >= MinLookback && l <= MaxLookback }

// Normalize returns l, or the default when l is out of range.
func (l Lookback) Normalize() Lookback {
	if l.IsValid() {
		return l
	}
	return DefaultLookback
}

// Range renders l the way chart APIs expect it ("6mo").
func (l Lookback) Range() string { return fmt.Sprintf("%dmo", int(l.Normalize())) }

// Days approximates l in calendar days.
func (l Lookback) Days() int { return int(l.Normalize()) * 31 }
