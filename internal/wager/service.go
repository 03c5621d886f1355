// Package wager implements the staking-pool and settlement engine: the
// event/bet lifecycle state machine, dynamic pari-mutuel odds, per-type
// payout dispatch, and the claim-idempotency and authorization guarantees
// that protect pooled funds.
//
// All monetary values use shopspring/decimal — never float64 for money.
package wager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/bettype"
	"github.com/oddspool/wager-engine/internal/limits"
	"github.com/oddspool/wager-engine/internal/metrics"
	"github.com/oddspool/wager-engine/internal/model"
	"github.com/oddspool/wager-engine/internal/odds"
	"github.com/oddspool/wager-engine/internal/store"
	"github.com/oddspool/wager-engine/internal/treasury"
)

// Service is the wagering ledger engine. Uses a mutex for serialized
// execution of mutating operations (single-instance): every create, place,
// resolve, and claim runs as one indivisible read-modify-write. For
// horizontal scaling, replace with distributed locking or database-level
// optimistic concurrency.
type Service struct {
	store    store.Store
	treasury treasury.Treasury
	limiter  *limits.StakeLimiter // optional stake caps
	notifier Notifier             // optional notification sink

	mu    sync.Mutex
	owner string // resolution authority; initialized to the deployer
}

// NewService creates the engine. owner is the initial resolution authority.
// Pass nil for limiter or notifier if not needed.
func NewService(st store.Store, tr treasury.Treasury, limiter *limits.StakeLimiter, notifier Notifier, owner string) *Service {
	return &Service{
		store:    st,
		treasury: tr,
		limiter:  limiter,
		notifier: notifier,
		owner:    owner,
	}
}

// Owner returns the current resolution authority.
func (s *Service) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// CreateEvent registers a new betting event with exactly two distinct,
// non-empty outcome labels and empty pool accumulators.
func (s *Service) CreateEvent(ctx context.Context, title string, outcomes []string, pointSpread *int64, totalScoreTarget *decimal.Decimal) (*model.Event, error) {
	if len(outcomes) != 2 || outcomes[0] == "" || outcomes[1] == "" || outcomes[0] == outcomes[1] {
		return nil, ErrInvalidOutcomeSet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.NextEventID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate event id: %w", err)
	}

	event := &model.Event{
		ID:               id,
		Title:            title,
		Outcomes:         [2]string{outcomes[0], outcomes[1]},
		PointSpread:      pointSpread,
		TotalScoreTarget: totalScoreTarget,
		TotalStaked:      decimal.Zero,
		OutcomeStaked:    make(map[string]decimal.Decimal, 2),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	metrics.EventsCreated.Inc()
	slog.Info("event created", "event_id", event.ID, "title", event.Title)
	if s.notifier != nil {
		s.notifier.EventCreated(event)
	}
	return event, nil
}

// PlaceBetParams carries everything needed to place one bet. Details is
// the raw auxiliary payload in its wire encoding; it is decoded and
// validated before any state changes.
type PlaceBetParams struct {
	EventID int64
	Bettor  string
	Amount  decimal.Decimal
	Outcome string
	Type    model.BetType
	Details string
}

// PlaceBet accepts a stake against an open event. The treasury debit, the
// pool accumulator update, and the bet record are one atomic unit: a
// failure after the debit triggers a compensating credit before returning.
func (s *Service) PlaceBet(ctx context.Context, p PlaceBetParams) (*model.Bet, error) {
	if p.Bettor == "" {
		return nil, fmt.Errorf("%w: bettor required", ErrInvalidBetDetails)
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBetType, p.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.getEvent(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if event.Resolved {
		return nil, ErrEventAlreadyResolved
	}
	if !event.HasOutcome(p.Outcome) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, p.Outcome)
	}

	details, err := s.parseDetails(ctx, event, p.Type, p.Details)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		open, err := s.openStakes(ctx, p.Bettor)
		if err != nil {
			return nil, fmt.Errorf("load open stakes: %w", err)
		}
		if err := s.limiter.CheckStake(p.EventID, p.Amount, open); err != nil {
			metrics.StakeLimitRejections.Inc()
			return nil, err
		}
	}

	id, err := s.store.NextBetID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate bet id: %w", err)
	}

	bet := &model.Bet{
		ID:            id,
		EventID:       p.EventID,
		Bettor:        p.Bettor,
		Amount:        p.Amount,
		ChosenOutcome: p.Outcome,
		Type:          p.Type,
		ParlayLegs:    details.ParlayLegs,
		Threshold:     details.Threshold,
		Payout:        decimal.Zero,
		PlacedAt:      time.Now().UTC(),
	}

	// Funds enter the pool before the ledger writes; any write failure
	// below refunds the stake so no partial state survives.
	if err := s.treasury.Debit(ctx, p.Bettor, p.Amount); err != nil {
		return nil, err
	}

	newTotal := event.TotalStaked.Add(p.Amount)
	newStakes := make(map[string]decimal.Decimal, 2)
	for k, v := range event.OutcomeStaked {
		newStakes[k] = v
	}
	newStakes[p.Outcome] = event.StakedOn(p.Outcome).Add(p.Amount)

	if err := s.store.UpdateEventPool(ctx, event.ID, newTotal, newStakes); err != nil {
		s.refund(ctx, p.Bettor, p.Amount)
		return nil, fmt.Errorf("update pool: %w", err)
	}
	if err := s.store.CreateBet(ctx, bet); err != nil {
		// Roll the pool back too; the accumulators must equal the bet sum.
		s.rollbackPool(ctx, event)
		s.refund(ctx, p.Bettor, p.Amount)
		return nil, fmt.Errorf("persist bet: %w", err)
	}

	metrics.BetsPlaced.WithLabelValues(string(p.Type)).Inc()
	metrics.StakedVolume.Add(p.Amount.InexactFloat64())
	slog.Info("bet placed",
		"bet_id", bet.ID,
		"event_id", bet.EventID,
		"bettor", bet.Bettor,
		"amount", bet.Amount.String(),
		"outcome", bet.ChosenOutcome,
		"bet_type", string(bet.Type),
	)
	if s.notifier != nil {
		s.notifier.BetPlaced(bet)
	}
	return bet, nil
}

// ResolveEvent freezes an event's outcome exactly once. Owner-only.
// Bets close permanently at this transition; there is no un-resolve.
func (s *Service) ResolveEvent(ctx context.Context, actor string, eventID int64, winningOutcome string, finalScore *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor != s.owner {
		return ErrUnauthorized
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.HasOutcome(winningOutcome) {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, winningOutcome)
	}
	if event.Resolved {
		return ErrEventAlreadyResolved
	}

	if err := s.store.MarkEventResolved(ctx, eventID, winningOutcome, finalScore); err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}

	event.Resolved = true
	event.WinningOutcome = winningOutcome
	event.FinalScore = finalScore

	metrics.EventsResolved.Inc()
	slog.Info("event resolved",
		"event_id", eventID,
		"winning_outcome", winningOutcome,
	)
	if s.notifier != nil {
		s.notifier.EventResolved(event)
	}
	return nil
}

// ClaimWinnings settles one unclaimed bet against its resolved event,
// pays the bettor from the pool, and marks the bet claimed — at most once
// per bet, ever.
func (s *Service) ClaimWinnings(ctx context.Context, betID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bet, err := s.getBet(ctx, betID)
	if err != nil {
		return decimal.Zero, err
	}
	if bet.Claimed {
		metrics.ClaimRejections.Inc()
		return decimal.Zero, ErrAlreadyClaimed
	}

	event, err := s.getEvent(ctx, bet.EventID)
	if err != nil {
		return decimal.Zero, err
	}
	if !event.Resolved {
		return decimal.Zero, ErrEventNotResolved
	}

	payout, err := s.computePayout(ctx, event, bet)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.treasury.Credit(ctx, bet.Bettor, payout); err != nil {
		return decimal.Zero, fmt.Errorf("pay out: %w", err)
	}
	if err := s.store.MarkBetClaimed(ctx, betID, payout); err != nil {
		// Claw the payout back; a paid-but-unclaimed bet could be claimed twice.
		if derr := s.treasury.Debit(ctx, bet.Bettor, payout); derr != nil {
			slog.Error("claim compensation failed", "bet_id", betID, "err", derr)
		}
		return decimal.Zero, fmt.Errorf("mark claimed: %w", err)
	}

	metrics.ClaimsSettled.WithLabelValues(string(bet.Type)).Inc()
	metrics.PayoutVolume.Add(payout.InexactFloat64())
	slog.Info("winnings claimed",
		"bet_id", betID,
		"bettor", bet.Bettor,
		"payout", payout.String(),
	)
	if s.notifier != nil {
		s.notifier.WinningsClaimed(bet, payout)
	}
	return payout, nil
}

// computePayout dispatches on bet type against the frozen pool.
func (s *Service) computePayout(ctx context.Context, event *model.Event, bet *model.Bet) (decimal.Decimal, error) {
	switch bet.Type {
	case model.BetSingle:
		if bet.ChosenOutcome != event.WinningOutcome {
			return decimal.Zero, ErrNotAWinner
		}
		o, err := odds.ForOutcome(event.TotalStaked, event.StakedOn(bet.ChosenOutcome))
		if err != nil {
			return decimal.Zero, err
		}
		return odds.SinglePayout(bet.Amount, o), nil

	case model.BetParlay:
		return s.parlayPayout(ctx, bet)

	case model.BetOverUnder:
		if bet.Threshold == nil {
			return decimal.Zero, fmt.Errorf("%w: over-under bet without threshold", ErrInvalidBetDetails)
		}
		if event.FinalScore == nil {
			return decimal.Zero, fmt.Errorf("%w: event has no final score", ErrMissingData)
		}
		return odds.OverUnderPayout(bet.Amount, *event.FinalScore, *bet.Threshold), nil

	case model.BetPointSpread:
		if event.PointSpread == nil {
			return decimal.Zero, fmt.Errorf("%w: event has no point spread", ErrMissingData)
		}
		return odds.SpreadPayout(bet.Amount, *event.PointSpread), nil

	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidBetType, bet.Type)
	}
}

// parlayPayout settles a parlay: every leg must be resolved with the bet's
// chosen outcome as its winner, or the whole combination loses. The payout
// is the product of the legs' pari-mutuel odds — full win or nothing,
// never partial.
func (s *Service) parlayPayout(ctx context.Context, bet *model.Bet) (decimal.Decimal, error) {
	if len(bet.ParlayLegs) == 0 {
		return decimal.Zero, fmt.Errorf("%w: parlay without legs", ErrInvalidBetDetails)
	}

	legOdds := make([]decimal.Decimal, 0, len(bet.ParlayLegs))
	for _, legID := range bet.ParlayLegs {
		leg, err := s.getEvent(ctx, legID)
		if err != nil {
			return decimal.Zero, err
		}
		if !leg.Resolved || leg.WinningOutcome != bet.ChosenOutcome {
			return decimal.Zero, ErrNotAWinner
		}
		o, err := odds.ForOutcome(leg.TotalStaked, leg.StakedOn(bet.ChosenOutcome))
		if err != nil {
			return decimal.Zero, err
		}
		legOdds = append(legOdds, o)
	}

	return odds.ParlayPayout(bet.Amount, legOdds)
}

// OddsForOutcome returns the live pari-mutuel odds for one outcome of an
// event's current pool.
func (s *Service) OddsForOutcome(ctx context.Context, eventID int64, outcome string) (decimal.Decimal, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return decimal.Zero, err
	}
	if !event.HasOutcome(outcome) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	return odds.ForOutcome(event.TotalStaked, event.StakedOn(outcome))
}

// GetEvent is a pure read.
func (s *Service) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.getEvent(ctx, id)
}

// GetBet is a pure read.
func (s *Service) GetBet(ctx context.Context, id int64) (*model.Bet, error) {
	return s.getBet(ctx, id)
}

// ListEvents returns all events, oldest first.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// ListBetsByEvent returns every bet placed against one event.
func (s *Service) ListBetsByEvent(ctx context.Context, eventID int64) ([]model.Bet, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListBetsByEvent(ctx, eventID)
}

// ListBetsByBettor returns one bettor's full bet history.
func (s *Service) ListBetsByBettor(ctx context.Context, bettor string) ([]model.Bet, error) {
	return s.store.ListBetsByBettor(ctx, bettor)
}

// PoolBalance returns the residual escrow pool balance.
func (s *Service) PoolBalance(ctx context.Context) (decimal.Decimal, error) {
	return s.treasury.PoolBalance(ctx)
}

// TransferOwnership hands the resolution authority to a new principal.
// Owner-only.
func (s *Service) TransferOwnership(_ context.Context, actor, newOwner string) error {
	if newOwner == "" {
		return fmt.Errorf("%w: new owner required", ErrInvalidBetDetails)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if actor != s.owner {
		return ErrUnauthorized
	}
	slog.Info("ownership transferred", "from", s.owner, "to", newOwner)
	s.owner = newOwner
	return nil
}

// WithdrawPoolFunds pays part of the residual pool to the owner.
// Owner-only.
func (s *Service) WithdrawPoolFunds(ctx context.Context, actor string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if actor != s.owner {
		return ErrUnauthorized
	}

	pool, err := s.treasury.PoolBalance(ctx)
	if err != nil {
		return fmt.Errorf("pool balance: %w", err)
	}
	if pool.LessThan(amount) {
		return treasury.ErrInsufficientFunds
	}

	if err := s.treasury.Credit(ctx, s.owner, amount); err != nil {
		return err
	}
	slog.Info("pool funds withdrawn", "owner", s.owner, "amount", amount.String())
	return nil
}

// --- helpers ---

func (s *Service) getEvent(ctx context.Context, id int64) (*model.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrEventNotFound, id)
		}
		return nil, err
	}
	return event, nil
}

func (s *Service) getBet(ctx context.Context, id int64) (*model.Bet, error) {
	bet, err := s.store.GetBet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrBetNotFound, id)
		}
		return nil, err
	}
	return bet, nil
}

// parseDetails decodes the wire details and applies placement-time checks
// that need ledger access: parlay legs must reference existing events, and
// point-spread bets require the event to carry a spread.
func (s *Service) parseDetails(ctx context.Context, event *model.Event, t model.BetType, raw string) (bettype.Details, error) {
	details, err := bettype.Parse(t, raw)
	if err != nil {
		switch {
		case errors.Is(err, bettype.ErrUnknownType):
			return bettype.Details{}, fmt.Errorf("%w: %q", ErrInvalidBetType, t)
		default:
			return bettype.Details{}, fmt.Errorf("%w: %v", ErrInvalidBetDetails, err)
		}
	}

	if t == model.BetPointSpread && event.PointSpread == nil {
		return bettype.Details{}, fmt.Errorf("%w: event carries no point spread", ErrInvalidBetDetails)
	}

	for _, legID := range details.ParlayLegs {
		if _, err := s.getEvent(ctx, legID); err != nil {
			return bettype.Details{}, fmt.Errorf("%w: leg event %d: %v", ErrInvalidBetDetails, legID, err)
		}
	}

	return details, nil
}

// openStakes sums a bettor's unclaimed stakes per event.
func (s *Service) openStakes(ctx context.Context, bettor string) (map[int64]decimal.Decimal, error) {
	bets, err := s.store.ListBetsByBettor(ctx, bettor)
	if err != nil {
		return nil, err
	}
	open := make(map[int64]decimal.Decimal)
	for _, b := range bets {
		if !b.Claimed {
			open[b.EventID] = open[b.EventID].Add(b.Amount)
		}
	}
	return open, nil
}

// refund compensates a debited stake after a failed ledger write.
func (s *Service) refund(ctx context.Context, bettor string, amount decimal.Decimal) {
	if err := s.treasury.Credit(ctx, bettor, amount); err != nil {
		slog.Error("stake refund failed", "bettor", bettor, "amount", amount.String(), "err", err)
	}
}

// rollbackPool restores an event's accumulators to a prior snapshot.
func (s *Service) rollbackPool(ctx context.Context, event *model.Event) {
	if err := s.store.UpdateEventPool(ctx, event.ID, event.TotalStaked, event.OutcomeStaked); err != nil {
		slog.Error("pool rollback failed", "event_id", event.ID, "err", err)
	}
}
