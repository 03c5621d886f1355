// Package store defines the persistence interface for the wager engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

// ErrNotFound is wrapped by every lookup miss, regardless of backend.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. Each call is atomic; the
// wager service serializes the read-modify-write sequences built on top.
type Store interface {
	// --- ID allocation ---

	// NextEventID allocates the next event id. Ids are strictly increasing
	// and never reused.
	NextEventID(ctx context.Context) (int64, error)

	// NextBetID allocates the next bet id.
	NextBetID(ctx context.Context) (int64, error)

	// --- Event operations ---

	// CreateEvent persists a new event.
	CreateEvent(ctx context.Context, event *model.Event) error

	// GetEvent retrieves an event by id.
	GetEvent(ctx context.Context, id int64) (*model.Event, error)

	// ListEvents returns all events.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// UpdateEventPool replaces the pool accumulators after a bet.
	UpdateEventPool(ctx context.Context, id int64, totalStaked decimal.Decimal, outcomeStaked map[string]decimal.Decimal) error

	// MarkEventResolved records the one-way resolved transition.
	MarkEventResolved(ctx context.Context, id int64, winningOutcome string, finalScore *decimal.Decimal) error

	// --- Bet ledger ---

	// CreateBet appends a bet record.
	CreateBet(ctx context.Context, bet *model.Bet) error

	// GetBet retrieves a bet by id.
	GetBet(ctx context.Context, id int64) (*model.Bet, error)

	// ListBetsByEvent returns all bets against an event.
	ListBetsByEvent(ctx context.Context, eventID int64) ([]model.Bet, error)

	// ListBetsByBettor returns all bets placed by one bettor.
	ListBetsByBettor(ctx context.Context, bettor string) ([]model.Bet, error)

	// MarkBetClaimed records the one-way claimed transition and the payout.
	MarkBetClaimed(ctx context.Context, id int64, payout decimal.Decimal) error
}
