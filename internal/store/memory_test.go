package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

func newEvent(id int64) *model.Event {
	return &model.Event{
		ID:            id,
		Title:         "Match",
		Outcomes:      [2]string{"A", "B"},
		TotalStaked:   decimal.Zero,
		OutcomeStaked: make(map[string]decimal.Decimal),
	}
}

func TestMemoryStore_IDAllocation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextEventID(ctx)
		if err != nil || got != want {
			t.Errorf("NextEventID: got %d, %v; want %d", got, err, want)
		}
	}
	// Bet ids run on their own counter.
	got, err := s.NextBetID(ctx)
	if err != nil || got != 1 {
		t.Errorf("NextBetID: got %d, %v; want 1", got, err)
	}
}

func TestMemoryStore_EventRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateEvent(ctx, newEvent(1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateEvent(ctx, newEvent(1)); err == nil {
		t.Error("duplicate id must be rejected")
	}

	got, err := s.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Match" || got.Outcomes != [2]string{"A", "B"} {
		t.Errorf("unexpected event: %+v", got)
	}

	_, err = s.GetEvent(ctx, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateEvent(ctx, newEvent(1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating a returned copy must not leak into the store.
	got, _ := s.GetEvent(ctx, 1)
	got.Title = "Tampered"
	got.OutcomeStaked["A"] = decimal.NewFromInt(999)

	fresh, _ := s.GetEvent(ctx, 1)
	if fresh.Title != "Match" {
		t.Error("stored title mutated through returned copy")
	}
	if !fresh.StakedOn("A").IsZero() {
		t.Error("stored stakes mutated through returned copy")
	}
}

func TestMemoryStore_UpdateEventPool(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateEvent(ctx, newEvent(1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	total := decimal.NewFromInt(400)
	stakes := map[string]decimal.Decimal{
		"A": decimal.NewFromInt(100),
		"B": decimal.NewFromInt(300),
	}
	if err := s.UpdateEventPool(ctx, 1, total, stakes); err != nil {
		t.Fatalf("update pool: %v", err)
	}

	got, _ := s.GetEvent(ctx, 1)
	if !got.TotalStaked.Equal(total) || !got.StakedOn("B").Equal(decimal.NewFromInt(300)) {
		t.Errorf("pool not updated: %+v", got)
	}

	if err := s.UpdateEventPool(ctx, 99, total, stakes); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_MarkEventResolved(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateEvent(ctx, newEvent(1)); err != nil {
		t.Fatalf("create: %v", err)
	}

	score := decimal.NewFromInt(45)
	if err := s.MarkEventResolved(ctx, 1, "A", &score); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}

	got, _ := s.GetEvent(ctx, 1)
	if !got.Resolved || got.WinningOutcome != "A" {
		t.Errorf("expected resolved with winner A, got %+v", got)
	}
	if got.FinalScore == nil || !got.FinalScore.Equal(score) {
		t.Errorf("expected final score 45, got %v", got.FinalScore)
	}

	if err := s.MarkEventResolved(ctx, 99, "A", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_BetQueries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bets := []*model.Bet{
		{ID: 1, EventID: 1, Bettor: "alice", Amount: decimal.NewFromInt(10), Type: model.BetSingle},
		{ID: 2, EventID: 2, Bettor: "alice", Amount: decimal.NewFromInt(20), Type: model.BetSingle},
		{ID: 3, EventID: 1, Bettor: "bob", Amount: decimal.NewFromInt(30), Type: model.BetSingle},
	}
	for _, b := range bets {
		if err := s.CreateBet(ctx, b); err != nil {
			t.Fatalf("create bet %d: %v", b.ID, err)
		}
	}

	byEvent, err := s.ListBetsByEvent(ctx, 1)
	if err != nil {
		t.Fatalf("list by event: %v", err)
	}
	if len(byEvent) != 2 || byEvent[0].ID != 1 || byEvent[1].ID != 3 {
		t.Errorf("unexpected bets for event 1: %+v", byEvent)
	}

	byBettor, err := s.ListBetsByBettor(ctx, "alice")
	if err != nil {
		t.Fatalf("list by bettor: %v", err)
	}
	if len(byBettor) != 2 || byBettor[0].ID != 1 || byBettor[1].ID != 2 {
		t.Errorf("unexpected bets for alice: %+v", byBettor)
	}

	_, err = s.GetBet(ctx, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_MarkBetClaimed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bet := &model.Bet{ID: 1, EventID: 1, Bettor: "alice", Amount: decimal.NewFromInt(10), Type: model.BetSingle}
	if err := s.CreateBet(ctx, bet); err != nil {
		t.Fatalf("create bet: %v", err)
	}

	payout := decimal.NewFromInt(40)
	if err := s.MarkBetClaimed(ctx, 1, payout); err != nil {
		t.Fatalf("mark claimed: %v", err)
	}

	got, _ := s.GetBet(ctx, 1)
	if !got.Claimed || !got.Payout.Equal(payout) {
		t.Errorf("expected claimed with payout 40, got %+v", got)
	}

	if err := s.MarkBetClaimed(ctx, 99, payout); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
