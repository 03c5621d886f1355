// Package treasury is the value-transfer collaborator of the wager engine.
// It moves funds between participant balances and the escrow pool; every
// transfer is all-or-nothing and recorded as an immutable ledger entry.
package treasury

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the source
	// balance, or a pool withdrawal exceeds the pool.
	ErrInsufficientFunds = errors.New("treasury: insufficient funds")

	// ErrNonPositiveAmount is returned for zero or negative transfer amounts.
	ErrNonPositiveAmount = errors.New("treasury: amount must be positive")
)

// Transfer directions.
const (
	DirDebit  = "debit"  // participant → pool
	DirCredit = "credit" // pool → participant
)

// Entry is an immutable record of one fund movement.
type Entry struct {
	ID          string          `json:"id"`
	Participant string          `json:"participant"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	At          time.Time       `json:"at"`
}

// Treasury moves funds between participants and the pool. Debit takes the
// amount from a participant into the pool; Credit pays it out of the pool.
// Both are atomic: they either fully apply or leave balances unchanged.
type Treasury interface {
	Debit(ctx context.Context, participant string, amount decimal.Decimal) error
	Credit(ctx context.Context, participant string, amount decimal.Decimal) error
	PoolBalance(ctx context.Context) (decimal.Decimal, error)
}
