package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	events      map[int64]*model.Event
	bets        map[int64]*model.Bet
	nextEventID int64
	nextBetID   int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[int64]*model.Event),
		bets:   make(map[int64]*model.Bet),
	}
}

func (s *MemoryStore) NextEventID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	return s.nextEventID, nil
}

func (s *MemoryStore) NextBetID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBetID++
	return s.nextBetID, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.ID]; exists {
		return fmt.Errorf("event %d already exists", e.ID)
	}
	s.events[e.ID] = copyEvent(e)
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return copyEvent(e), nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, *copyEvent(e))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (s *MemoryStore) UpdateEventPool(_ context.Context, id int64, totalStaked decimal.Decimal, outcomeStaked map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	e.TotalStaked = totalStaked
	e.OutcomeStaked = copyStakes(outcomeStaked)
	return nil
}

func (s *MemoryStore) MarkEventResolved(_ context.Context, id int64, winningOutcome string, finalScore *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	e.Resolved = true
	e.WinningOutcome = winningOutcome
	if finalScore != nil {
		score := *finalScore
		e.FinalScore = &score
	}
	return nil
}

func (s *MemoryStore) CreateBet(_ context.Context, b *model.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bets[b.ID]; exists {
		return fmt.Errorf("bet %d already exists", b.ID)
	}
	s.bets[b.ID] = copyBet(b)
	return nil
}

func (s *MemoryStore) GetBet(_ context.Context, id int64) (*model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bets[id]
	if !ok {
		return nil, fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	return copyBet(b), nil
}

func (s *MemoryStore) ListBetsByEvent(_ context.Context, eventID int64) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBets(func(b *model.Bet) bool { return b.EventID == eventID }), nil
}

func (s *MemoryStore) ListBetsByBettor(_ context.Context, bettor string) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBets(func(b *model.Bet) bool { return b.Bettor == bettor }), nil
}

func (s *MemoryStore) MarkBetClaimed(_ context.Context, id int64, payout decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bets[id]
	if !ok {
		return fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	b.Claimed = true
	b.Payout = payout
	return nil
}

// listBets filters bets under the read lock, ordered by id.
func (s *MemoryStore) listBets(match func(*model.Bet) bool) []model.Bet {
	var bets []model.Bet
	for _, b := range s.bets {
		if match(b) {
			bets = append(bets, *copyBet(b))
		}
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID < bets[j].ID })
	return bets
}

// Copies guard against external mutation of stored records.

func copyEvent(e *model.Event) *model.Event {
	cp := *e
	cp.OutcomeStaked = copyStakes(e.OutcomeStaked)
	if e.PointSpread != nil {
		v := *e.PointSpread
		cp.PointSpread = &v
	}
	if e.TotalScoreTarget != nil {
		v := *e.TotalScoreTarget
		cp.TotalScoreTarget = &v
	}
	if e.FinalScore != nil {
		v := *e.FinalScore
		cp.FinalScore = &v
	}
	return &cp
}

func copyBet(b *model.Bet) *model.Bet {
	cp := *b
	if b.ParlayLegs != nil {
		cp.ParlayLegs = append([]int64(nil), b.ParlayLegs...)
	}
	if b.Threshold != nil {
		v := *b.Threshold
		cp.Threshold = &v
	}
	return &cp
}

func copyStakes(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
