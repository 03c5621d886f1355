package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary. Id allocation is never
// cached.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- ID allocation (always primary) ---

func (s *CachedStore) NextEventID(ctx context.Context) (int64, error) {
	return s.primary.NextEventID(ctx)
}

func (s *CachedStore) NextBetID(ctx context.Context) (int64, error) {
	return s.primary.NextBetID(ctx)
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateEvent(ctx context.Context, e *model.Event) error {
	if err := s.primary.CreateEvent(ctx, e); err != nil {
		return err
	}
	s.cacheEvent(ctx, e)
	return nil
}

func (s *CachedStore) UpdateEventPool(ctx context.Context, id int64, totalStaked decimal.Decimal, outcomeStaked map[string]decimal.Decimal) error {
	if err := s.primary.UpdateEventPool(ctx, id, totalStaked, outcomeStaked); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, eventKey(id))
	return nil
}

func (s *CachedStore) MarkEventResolved(ctx context.Context, id int64, winningOutcome string, finalScore *decimal.Decimal) error {
	if err := s.primary.MarkEventResolved(ctx, id, winningOutcome, finalScore); err != nil {
		return err
	}
	s.rdb.Del(ctx, eventKey(id))
	return nil
}

func (s *CachedStore) CreateBet(ctx context.Context, b *model.Bet) error {
	if err := s.primary.CreateBet(ctx, b); err != nil {
		return err
	}
	s.cacheBet(ctx, b)
	return nil
}

func (s *CachedStore) MarkBetClaimed(ctx context.Context, id int64, payout decimal.Decimal) error {
	if err := s.primary.MarkBetClaimed(ctx, id, payout); err != nil {
		return err
	}
	s.rdb.Del(ctx, betKey(id))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	data, err := s.rdb.Get(ctx, eventKey(id)).Bytes()
	if err == nil {
		var e model.Event
		if json.Unmarshal(data, &e) == nil {
			return &e, nil
		}
	}

	// Cache miss: read from primary.
	e, err := s.primary.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheEvent(ctx, e)
	return e, nil
}

func (s *CachedStore) GetBet(ctx context.Context, id int64) (*model.Bet, error) {
	data, err := s.rdb.Get(ctx, betKey(id)).Bytes()
	if err == nil {
		var b model.Bet
		if json.Unmarshal(data, &b) == nil {
			return &b, nil
		}
	}

	b, err := s.primary.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheBet(ctx, b)
	return b, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.primary.ListEvents(ctx)
}

func (s *CachedStore) ListBetsByEvent(ctx context.Context, eventID int64) ([]model.Bet, error) {
	return s.primary.ListBetsByEvent(ctx, eventID)
}

func (s *CachedStore) ListBetsByBettor(ctx context.Context, bettor string) ([]model.Bet, error) {
	return s.primary.ListBetsByBettor(ctx, bettor)
}

// --- Cache helpers ---

func (s *CachedStore) cacheEvent(ctx context.Context, e *model.Event) {
	if data, err := json.Marshal(e); err == nil {
		s.rdb.Set(ctx, eventKey(e.ID), data, s.ttl)
	}
}

func (s *CachedStore) cacheBet(ctx context.Context, b *model.Bet) {
	if data, err := json.Marshal(b); err == nil {
		s.rdb.Set(ctx, betKey(b.ID), data, s.ttl)
	}
}

func eventKey(id int64) string { return fmt.Sprintf("event:%d", id) }
func betKey(id int64) string   { return fmt.Sprintf("bet:%d", id) }
