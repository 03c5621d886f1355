package treasury

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryTreasury implements Treasury with in-memory balances. Used for
// testing and development. Not suitable for production (no persistence).
type MemoryTreasury struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	pool     decimal.Decimal
	entries  []Entry
}

// NewMemoryTreasury creates an in-memory treasury with an empty pool.
func NewMemoryTreasury() *MemoryTreasury {
	return &MemoryTreasury{
		balances: make(map[string]decimal.Decimal),
	}
}

// Deposit seeds a participant balance. Dev/test hook, not part of the
// Treasury interface.
func (t *MemoryTreasury) Deposit(participant string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[participant] = t.balances[participant].Add(amount)
}

// Balance returns a participant's current balance.
func (t *MemoryTreasury) Balance(participant string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[participant]
}

func (t *MemoryTreasury) Debit(_ context.Context, participant string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balances[participant]
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}

	t.balances[participant] = bal.Sub(amount)
	t.pool = t.pool.Add(amount)
	t.record(participant, DirDebit, amount)
	return nil
}

func (t *MemoryTreasury) Credit(_ context.Context, participant string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pool = t.pool.Sub(amount)
	t.balances[participant] = t.balances[participant].Add(amount)
	t.record(participant, DirCredit, amount)
	return nil
}

func (t *MemoryTreasury) PoolBalance(_ context.Context) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pool, nil
}

// Entries returns a copy of the transfer ledger.
func (t *MemoryTreasury) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// record appends a ledger entry. Caller must hold t.mu.
func (t *MemoryTreasury) record(participant, direction string, amount decimal.Decimal) {
	t.entries = append(t.entries, Entry{
		ID:          uuid.New().String(),
		Participant: participant,
		Direction:   direction,
		Amount:      amount,
		At:          time.Now().UTC(),
	})
}
