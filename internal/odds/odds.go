// Package odds implements pari-mutuel odds and payout computation for the
// wager engine.
//
// Odds are derived purely from pool composition: the payout ratio for an
// outcome is the inverse of the share of the pool backing it, scaled by 100
// so that even money reads as 200. The pool is frozen at event resolution,
// so settlement-time odds are final.
//
// All monetary values use shopspring/decimal — never float64 for money.
package odds

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroOutcomePool is returned when odds are requested for an outcome
	// with no stake behind it. Unreachable for a winning outcome that holds
	// the claimant's own stake; kept as a guard against a corrupted pool.
	ErrZeroOutcomePool = errors.New("odds: no stake recorded on outcome")

	// ErrNoLegs is returned for a parlay payout with an empty leg list.
	ErrNoLegs = errors.New("odds: parlay requires at least one leg")
)

// Scale is the fixed-point odds scale: odds of 100 mean the pool pays the
// stake back exactly, 200 doubles it.
var Scale = decimal.NewFromInt(100)

// PayoutScale is the number of decimal places payouts are rounded to.
const PayoutScale int32 = 8

// ForOutcome computes the pari-mutuel odds for one outcome of a pool:
//
//	odds = totalStaked * 100 / outcomeStaked
//
// totalStaked is the whole pool; outcomeStaked is the portion backing the
// outcome in question.
func ForOutcome(totalStaked, outcomeStaked decimal.Decimal) (decimal.Decimal, error) {
	if outcomeStaked.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrZeroOutcomePool
	}
	return totalStaked.Mul(Scale).Div(outcomeStaked).Round(PayoutScale), nil
}

// SinglePayout computes the payout for a winning single bet:
//
//	payout = amount * odds / 100
func SinglePayout(amount, betOdds decimal.Decimal) decimal.Decimal {
	return amount.Mul(betOdds).Div(Scale).Round(PayoutScale)
}

// ParlayPayout combines per-leg odds into a single payout:
//
//	payout = amount * Π(odds_i) / 100^(legs-1)
//
// Each additional leg multiplies risk and reward. The caller is responsible
// for verifying every leg won; a parlay pays in full or not at all.
func ParlayPayout(amount decimal.Decimal, legOdds []decimal.Decimal) (decimal.Decimal, error) {
	if len(legOdds) == 0 {
		return decimal.Zero, ErrNoLegs
	}

	payout := amount
	for _, o := range legOdds {
		payout = payout.Mul(o)
	}
	for i := 0; i < len(legOdds)-1; i++ {
		payout = payout.Div(Scale)
	}
	return payout.Round(PayoutScale), nil
}

// OverUnderPayout settles an over-under bet against the event's final score.
// A strictly-over result pays double the stake; anything else returns half
// the stake. Under and exact-threshold are not distinguished.
func OverUnderPayout(amount, finalScore, threshold decimal.Decimal) decimal.Decimal {
	if finalScore.GreaterThan(threshold) {
		return amount.Mul(decimal.NewFromInt(2))
	}
	return amount.Div(decimal.NewFromInt(2)).Round(PayoutScale)
}

// SpreadPayout settles a point-spread bet from the sign of the event's
// stored spread: non-negative pays double the stake, negative pays half.
// The spread is never compared against the actual score margin; this
// reproduces the upstream contract as specified.
func SpreadPayout(amount decimal.Decimal, spread int64) decimal.Decimal {
	if spread >= 0 {
		return amount.Mul(decimal.NewFromInt(2))
	}
	return amount.Div(decimal.NewFromInt(2)).Round(PayoutScale)
}
