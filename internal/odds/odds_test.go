package odds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestForOutcome(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		staked  float64
		want    float64
		wantErr error
	}{
		{name: "even pool", total: 200, staked: 100, want: 200},
		{name: "longshot", total: 400, staked: 100, want: 400},
		{name: "favorite", total: 400, staked: 300, want: 133.33333333},
		{name: "sole backer", total: 100, staked: 100, want: 100},
		{name: "zero outcome pool", total: 400, staked: 0, wantErr: ErrZeroOutcomePool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ForOutcome(d(tt.total), d(tt.staked))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %v", got, tt.want)
		})
	}
}

func TestSinglePayout(t *testing.T) {
	// 100 staked at odds 400 pays 400.
	payout := SinglePayout(d(100), d(400))
	assert.True(t, payout.Equal(d(400)), "got %s", payout)

	// Even money: stake comes straight back.
	payout = SinglePayout(d(250), d(100))
	assert.True(t, payout.Equal(d(250)), "got %s", payout)
}

func TestParlayPayout(t *testing.T) {
	// Single leg: amount * odds, no normalization.
	payout, err := ParlayPayout(d(100), []decimal.Decimal{d(400)})
	require.NoError(t, err)
	assert.True(t, payout.Equal(d(40000)), "got %s", payout)

	// Two legs: amount * odds1 * odds2 / 100.
	payout, err = ParlayPayout(d(100), []decimal.Decimal{d(400), d(200)})
	require.NoError(t, err)
	assert.True(t, payout.Equal(d(80000)), "got %s", payout)

	// Three legs: amount * odds1 * odds2 * odds3 / 100^2.
	payout, err = ParlayPayout(d(10), []decimal.Decimal{d(200), d(200), d(200)})
	require.NoError(t, err)
	assert.True(t, payout.Equal(d(8000)), "got %s", payout)
}

func TestParlayPayout_NoLegs(t *testing.T) {
	_, err := ParlayPayout(d(100), nil)
	assert.ErrorIs(t, err, ErrNoLegs)
}

func TestOverUnderPayout(t *testing.T) {
	// Strictly over pays double.
	payout := OverUnderPayout(d(100), d(50), d(40))
	assert.True(t, payout.Equal(d(200)), "got %s", payout)

	// Under pays half.
	payout = OverUnderPayout(d(100), d(30), d(40))
	assert.True(t, payout.Equal(d(50)), "got %s", payout)

	// Exact threshold is not distinguished from under.
	payout = OverUnderPayout(d(100), d(40), d(40))
	assert.True(t, payout.Equal(d(50)), "got %s", payout)
}

func TestSpreadPayout(t *testing.T) {
	assert.True(t, SpreadPayout(d(100), 7).Equal(d(200)))
	assert.True(t, SpreadPayout(d(100), 0).Equal(d(200)))
	assert.True(t, SpreadPayout(d(100), -3).Equal(d(50)))

	// Odd stake halves cleanly in decimals.
	assert.True(t, SpreadPayout(d(25), -1).Equal(d(12.5)))
}
