package wager

import (
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

// Notifier receives a structured record for each of the four ledger
// transitions. Implementations must not block: notifications are emitted
// inside the engine's critical section.
type Notifier interface {
	EventCreated(e *model.Event)
	BetPlaced(b *model.Bet)
	EventResolved(e *model.Event)
	WinningsClaimed(b *model.Bet, payout decimal.Decimal)
}
