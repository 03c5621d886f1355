// Package limits enforces stake limits on bet placement.
//
// Two caps apply per bettor: the stake concentrated on any single event,
// and the aggregate stake held across all open (unclaimed) bets. Both guard
// the pool against one participant dominating the odds.
package limits

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrPerEventLimitExceeded is returned when a bet would push a bettor's
	// stake on one event beyond the per-event maximum.
	ErrPerEventLimitExceeded = errors.New("limits: per-event stake limit exceeded")

	// ErrOpenStakeLimitExceeded is returned when a bet would push a bettor's
	// aggregate open stake beyond the total maximum.
	ErrOpenStakeLimitExceeded = errors.New("limits: open stake limit exceeded")
)

// StakeLimiter enforces per-bettor stake limits.
type StakeLimiter struct {
	// MaxPerEvent is the maximum stake a bettor may hold on one event.
	MaxPerEvent decimal.Decimal

	// MaxOpenTotal is the maximum aggregate stake across all of a bettor's
	// unclaimed bets.
	MaxOpenTotal decimal.Decimal
}

// NewStakeLimiter creates a limiter with the given per-event and aggregate
// stake caps.
func NewStakeLimiter(maxPerEvent, maxOpenTotal decimal.Decimal) *StakeLimiter {
	return &StakeLimiter{
		MaxPerEvent:  maxPerEvent,
		MaxOpenTotal: maxOpenTotal,
	}
}

// CheckStake validates whether an additional stake respects both limits.
//
// Parameters:
//   - targetEventID: the event being bet on
//   - amount: the new stake
//   - openStakes: map of event id → the bettor's current unclaimed stake
//
// Returns nil if the stake is within limits, or an error naming the
// violated cap.
func (l *StakeLimiter) CheckStake(
	targetEventID int64,
	amount decimal.Decimal,
	openStakes map[int64]decimal.Decimal,
) error {
	newOnEvent := openStakes[targetEventID].Add(amount)
	if newOnEvent.GreaterThan(l.MaxPerEvent) {
		return ErrPerEventLimitExceeded
	}

	total := amount
	for _, s := range openStakes {
		total = total.Add(s)
	}
	if total.GreaterThan(l.MaxOpenTotal) {
		return ErrOpenStakeLimitExceeded
	}

	return nil
}
