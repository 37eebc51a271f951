package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundCommercialBoundaries(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{6900, 6900},
		{6901, 6900},
		{6924, 6900},
		{6925, 6950},
		{6949, 6950},
		{6950, 6950},
		{6951, 7000},
		{6975, 7000},
		{6999, 7000},
		{7000, 7000},
		{0, 0},
		{50, 50},
		{24, 0},
		{99, 100},
	}
	for _, tc := range cases {
		got := RoundCommercial(decimal.NewFromInt(tc.in))
		require.True(t, got.Equal(decimal.NewFromInt(tc.want)), "round(%d) = %s, want %d", tc.in, got, tc.want)
	}
}

func TestRoundCommercialIdempotent(t *testing.T) {
	for _, in := range []int64{6900, 6901, 6925, 6949, 6950, 6951, 6999, 7000, 123456} {
		once := RoundCommercial(decimal.NewFromInt(in))
		twice := RoundCommercial(once)
		require.True(t, twice.Equal(once), "round not idempotent for %d: %s vs %s", in, once, twice)
	}
}

func TestRoundCommercialFractionalRemainder(t *testing.T) {
	// Sub-unit remainders sit outside every band and pass through.
	in, err := ParseAmount("6900.40")
	require.NoError(t, err)
	require.True(t, RoundCommercial(in).Equal(in))

	in, err = ParseAmount("0.40")
	require.NoError(t, err)
	require.True(t, RoundCommercial(in).Equal(in))

	// A whole-unit remainder still rounds even when written with cents.
	in, err = ParseAmount("180.00")
	require.NoError(t, err)
	require.True(t, RoundCommercial(in).Equal(decimal.NewFromInt(200)))
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("12,50")
	require.Error(t, err)

	d, err := ParseAmount("0.95")
	require.NoError(t, err)
	require.Equal(t, "0.95", d.String())
}
