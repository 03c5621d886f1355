package wager

import "errors"

// Error taxonomy of the engine. Every mutating operation returns one of
// these (or a treasury/odds sentinel) and leaves state unchanged on
// failure; callers decide whether to retry with corrected input.
var (
	ErrInvalidOutcomeSet    = errors.New("wager: outcomes must be exactly two distinct non-empty labels")
	ErrEventNotFound        = errors.New("wager: event not found")
	ErrInvalidOutcome       = errors.New("wager: outcome is not part of the event")
	ErrEventAlreadyResolved = errors.New("wager: event already resolved")
	ErrEventNotResolved     = errors.New("wager: event not resolved")
	ErrInvalidBetType       = errors.New("wager: invalid bet type")
	ErrInvalidBetDetails    = errors.New("wager: invalid bet details")
	ErrInvalidAmount        = errors.New("wager: amount must be positive")
	ErrMissingData          = errors.New("wager: required settlement data missing")
	ErrNotAWinner           = errors.New("wager: bet did not win")
	ErrAlreadyClaimed       = errors.New("wager: winnings already claimed")
	ErrBetNotFound          = errors.New("wager: bet not found")
	ErrUnauthorized         = errors.New("wager: caller is not the owner")
)
