package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
// Ids come from database sequences so they survive restarts and are never
// reused. Schema: schema.sql at the repository root.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) NextEventID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT nextval('event_id_seq')`).Scan(&id)
	return id, err
}

func (s *PostgresStore) NextBetID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT nextval('bet_id_seq')`).Scan(&id)
	return id, err
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	var totalScoreTarget *string
	if e.TotalScoreTarget != nil {
		v := e.TotalScoreTarget.String()
		totalScoreTarget = &v
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, title, outcome_a, outcome_b, point_spread, total_score_target,
		                     resolved, winning_outcome, final_score, total_staked, staked_a, staked_b, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, NULL, NULL, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11)`,
		e.ID, e.Title, e.Outcomes[0], e.Outcomes[1], e.PointSpread, totalScoreTarget,
		e.Resolved, e.TotalStaked.String(),
		e.StakedOn(e.Outcomes[0]).String(), e.StakedOn(e.Outcomes[1]).String(),
		e.CreatedAt,
	)
	return err
}

const eventColumns = `id, title, outcome_a, outcome_b, point_spread,
	total_score_target::TEXT, resolved, winning_outcome,
	final_score::TEXT, total_staked::TEXT, staked_a::TEXT, staked_b::TEXT, created_at`

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) UpdateEventPool(ctx context.Context, id int64, totalStaked decimal.Decimal, outcomeStaked map[string]decimal.Decimal) error {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}

	stakedA := decimal.Zero
	stakedB := decimal.Zero
	if v, ok := outcomeStaked[e.Outcomes[0]]; ok {
		stakedA = v
	}
	if v, ok := outcomeStaked[e.Outcomes[1]]; ok {
		stakedB = v
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE events
		 SET total_staked = $2::NUMERIC, staked_a = $3::NUMERIC, staked_b = $4::NUMERIC
		 WHERE id = $1`,
		id, totalStaked.String(), stakedA.String(), stakedB.String(),
	)
	return err
}

func (s *PostgresStore) MarkEventResolved(ctx context.Context, id int64, winningOutcome string, finalScore *decimal.Decimal) error {
	var score *string
	if finalScore != nil {
		v := finalScore.String()
		score = &v
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE events
		 SET resolved = TRUE, winning_outcome = $2, final_score = $3::NUMERIC
		 WHERE id = $1`,
		id, winningOutcome, score,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateBet(ctx context.Context, b *model.Bet) error {
	var threshold *string
	if b.Threshold != nil {
		v := b.Threshold.String()
		threshold = &v
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bets (id, event_id, bettor, amount, chosen_outcome, bet_type,
		                   parlay_legs, threshold, claimed, payout, placed_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6, $7, $8::NUMERIC, $9, $10::NUMERIC, $11)`,
		b.ID, b.EventID, b.Bettor, b.Amount.String(), b.ChosenOutcome, string(b.Type),
		b.ParlayLegs, threshold, b.Claimed, b.Payout.String(), b.PlacedAt,
	)
	return err
}

const betColumns = `id, event_id, bettor, amount::TEXT, chosen_outcome, bet_type,
	parlay_legs, threshold::TEXT, claimed, payout::TEXT, placed_at`

func (s *PostgresStore) GetBet(ctx context.Context, id int64) (*model.Bet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE id = $1`, id)

	b, err := scanBet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bet %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get bet %d: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBetsByEvent(ctx context.Context, eventID int64) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+betColumns+` FROM bets WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func (s *PostgresStore) ListBetsByBettor(ctx context.Context, bettor string) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+betColumns+` FROM bets WHERE bettor = $1 ORDER BY id`, bettor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func (s *PostgresStore) MarkBetClaimed(ctx context.Context, id int64, payout decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bets SET claimed = TRUE, payout = $2::NUMERIC WHERE id = $1`,
		id, payout.String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	return nil
}

// pgxRow abstracts QueryRow results and Query rows for the scan helpers.
type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row pgxRow) (*model.Event, error) {
	var e model.Event
	var totalScoreTarget, finalScore, winningOutcome *string
	var total, stakedA, stakedB string

	if err := row.Scan(&e.ID, &e.Title, &e.Outcomes[0], &e.Outcomes[1], &e.PointSpread,
		&totalScoreTarget, &e.Resolved, &winningOutcome,
		&finalScore, &total, &stakedA, &stakedB, &e.CreatedAt); err != nil {
		return nil, err
	}

	if winningOutcome != nil {
		e.WinningOutcome = *winningOutcome
	}
	if totalScoreTarget != nil {
		v, _ := decimal.NewFromString(*totalScoreTarget)
		e.TotalScoreTarget = &v
	}
	if finalScore != nil {
		v, _ := decimal.NewFromString(*finalScore)
		e.FinalScore = &v
	}
	e.TotalStaked, _ = decimal.NewFromString(total)

	e.OutcomeStaked = make(map[string]decimal.Decimal, 2)
	a, _ := decimal.NewFromString(stakedA)
	b, _ := decimal.NewFromString(stakedB)
	if a.IsPositive() {
		e.OutcomeStaked[e.Outcomes[0]] = a
	}
	if b.IsPositive() {
		e.OutcomeStaked[e.Outcomes[1]] = b
	}

	return &e, nil
}

func scanBet(row pgxRow) (*model.Bet, error) {
	var b model.Bet
	var betType string
	var threshold *string
	var amount, payout string

	if err := row.Scan(&b.ID, &b.EventID, &b.Bettor, &amount, &b.ChosenOutcome, &betType,
		&b.ParlayLegs, &threshold, &b.Claimed, &payout, &b.PlacedAt); err != nil {
		return nil, err
	}

	b.Type = model.BetType(betType)
	b.Amount, _ = decimal.NewFromString(amount)
	b.Payout, _ = decimal.NewFromString(payout)
	if threshold != nil {
		v, _ := decimal.NewFromString(*threshold)
		b.Threshold = &v
	}

	return &b, nil
}

func scanBets(rows pgx.Rows) ([]model.Bet, error) {
	var bets []model.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
	}
	return bets, rows.Err()
}
