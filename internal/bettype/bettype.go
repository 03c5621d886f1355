// Package bettype parses and validates the auxiliary details payload that
// accompanies a bet. The wire format is a plain string — a comma-separated
// event id list for parlays, a numeric threshold for over-unders — which is
// decoded here once, at placement time, into structured fields. Settlement
// never parses strings.
package bettype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
)

var (
	ErrUnknownType    = errors.New("bettype: unknown bet type")
	ErrMissingDetails = errors.New("bettype: details required for this bet type")
	ErrBadDetails     = errors.New("bettype: malformed details")
)

// Details is the decoded, validated form of a bet's auxiliary payload.
// At most one of the fields is set, matching the bet type it was parsed for.
type Details struct {
	// ParlayLegs holds the referenced event ids of a parlay.
	ParlayLegs []int64

	// Threshold holds the over-under line.
	Threshold *decimal.Decimal
}

// Parse validates a (betType, details) combination and decodes the payload.
//
//	single        details ignored
//	parlay        required: comma-separated list of event ids
//	over-under    required: numeric threshold
//	point-spread  no payload; the event's own stored spread is used
func Parse(t model.BetType, details string) (Details, error) {
	switch t {
	case model.BetSingle, model.BetPointSpread:
		return Details{}, nil

	case model.BetParlay:
		legs, err := parseLegs(details)
		if err != nil {
			return Details{}, err
		}
		return Details{ParlayLegs: legs}, nil

	case model.BetOverUnder:
		if strings.TrimSpace(details) == "" {
			return Details{}, ErrMissingDetails
		}
		threshold, err := decimal.NewFromString(strings.TrimSpace(details))
		if err != nil {
			return Details{}, fmt.Errorf("%w: threshold %q is not numeric", ErrBadDetails, details)
		}
		return Details{Threshold: &threshold}, nil

	default:
		return Details{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// parseLegs decodes a comma-separated event id list. Duplicate ids are
// rejected: a parlay leg cannot be counted twice.
func parseLegs(details string) ([]int64, error) {
	if strings.TrimSpace(details) == "" {
		return nil, ErrMissingDetails
	}

	parts := strings.Split(details, ",")
	legs := make([]int64, 0, len(parts))
	seen := make(map[int64]bool, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q is not a valid event id", ErrBadDetails, p)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate leg %d", ErrBadDetails, id)
		}
		seen[id] = true
		legs = append(legs, id)
	}
	return legs, nil
}
