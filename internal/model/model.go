// Package model defines the core domain types shared across the wager engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetType identifies the settlement rule applied to a bet.
type BetType string

const (
	BetSingle      BetType = "single"
	BetParlay      BetType = "parlay"
	BetOverUnder   BetType = "over-under"
	BetPointSpread BetType = "point-spread"
)

// Valid reports whether t is one of the four supported bet types.
func (t BetType) Valid() bool {
	switch t {
	case BetSingle, BetParlay, BetOverUnder, BetPointSpread:
		return true
	}
	return false
}

// Event represents a betting event with a two-outcome staking pool.
// The pool accumulators grow while the event is open and freeze at
// resolution; settlement reads them to derive pari-mutuel odds.
type Event struct {
	ID               int64                      `json:"id" db:"id"`
	Title            string                     `json:"title" db:"title"`
	Outcomes         [2]string                  `json:"outcomes"`
	PointSpread      *int64                     `json:"point_spread,omitempty" db:"point_spread"`
	TotalScoreTarget *decimal.Decimal           `json:"total_score_target,omitempty" db:"total_score_target"`
	Resolved         bool                       `json:"resolved" db:"resolved"`
	WinningOutcome   string                     `json:"winning_outcome,omitempty" db:"winning_outcome"`
	FinalScore       *decimal.Decimal           `json:"final_score,omitempty" db:"final_score"`
	TotalStaked      decimal.Decimal            `json:"total_staked" db:"total_staked"`
	OutcomeStaked    map[string]decimal.Decimal `json:"outcome_staked"`
	CreatedAt        time.Time                  `json:"created_at" db:"created_at"`
}

// HasOutcome reports whether label is one of the event's two outcomes.
func (e *Event) HasOutcome(label string) bool {
	return label == e.Outcomes[0] || label == e.Outcomes[1]
}

// StakedOn returns the accumulated stake on an outcome, zero if none yet.
func (e *Event) StakedOn(label string) decimal.Decimal {
	if s, ok := e.OutcomeStaked[label]; ok {
		return s
	}
	return decimal.Zero
}

// Bet is a ledger record of one placed stake. Amount and the chosen
// outcome are immutable after placement; Claimed transitions false→true
// exactly once, when settlement pays out.
type Bet struct {
	ID            int64           `json:"id" db:"id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	Bettor        string          `json:"bettor" db:"bettor"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	ChosenOutcome string          `json:"chosen_outcome" db:"chosen_outcome"`
	Type          BetType         `json:"bet_type" db:"bet_type"`

	// ParlayLegs lists the events a parlay combines, validated against the
	// ledger at placement time. Empty for every other bet type.
	ParlayLegs []int64 `json:"parlay_legs,omitempty"`

	// Threshold is the over-under line captured at placement time.
	// Nil for every other bet type.
	Threshold *decimal.Decimal `json:"threshold,omitempty" db:"threshold"`

	Claimed  bool            `json:"claimed" db:"claimed"`
	Payout   decimal.Decimal `json:"payout" db:"payout"`
	PlacedAt time.Time       `json:"placed_at" db:"placed_at"`
}
