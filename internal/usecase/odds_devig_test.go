package usecase

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func bookmaker(name, home, draw, away string) ExternalBookmakerOdds {
	return ExternalBookmakerOdds{
		Name: name,
		Home: decimal.RequireFromString(home),
		Draw: decimal.RequireFromString(draw),
		Away: decimal.RequireFromString(away),
	}
}

func TestDevigOdds_FairProbabilitiesSumToOneInAnyOrder(t *testing.T) {
	t.Parallel()

	a := bookmaker("Bet365", "1.90", "3.40", "4.35")   // ~105%
	b := bookmaker("Pinnacle", "1.80", "3.30", "4.60") // ~107%
	c := bookmaker("Unibet", "2.00", "3.60", "3.95")   // ~103%

	orders := [][]ExternalBookmakerOdds{
		{a, b, c},
		{c, a, b},
		{b, c, a},
	}

	first, ok := DevigOdds(orders[0], DefaultBookmakers)
	require.True(t, ok)

	sum := first.Probabilities.Home + first.Probabilities.Draw + first.Probabilities.Away
	require.InDelta(t, 1.0, sum, 1e-5)
	require.True(t, first.Curated)
	require.Equal(t, []string{"Bet365", "Pinnacle", "Unibet"}, first.Bookmakers)
	require.Greater(t, first.AverageMargin, 0.04)
	require.Less(t, first.AverageMargin, 0.06)
	require.Greater(t, first.Probabilities.Home, first.Probabilities.Draw)
	require.InDelta(t, 1/first.Probabilities.Home, first.FairOdds.Home, 0.01)
	require.Positive(t, first.StdDev.Home)

	for _, order := range orders[1:] {
		got, ok := DevigOdds(order, DefaultBookmakers)
		require.True(t, ok)
		require.Equal(t, first, got)
	}
}

func TestDevigOdds_PrefersCuratedBookmakers(t *testing.T) {
	t.Parallel()

	odds := []ExternalBookmakerOdds{
		bookmaker("Bet365", "2.10", "3.30", "3.60"),
		bookmaker("Shady Book", "9.00", "9.00", "1.05"),
	}

	got, ok := DevigOdds(odds, DefaultBookmakers)
	require.True(t, ok)
	require.True(t, got.Curated)
	require.Equal(t, []string{"Bet365"}, got.Bookmakers)
	require.Zero(t, got.StdDev.Home)
}

func TestDevigOdds_FallsBackToAllQuotes(t *testing.T) {
	t.Parallel()

	odds := []ExternalBookmakerOdds{
		bookmaker("10Bet", "2.10", "3.30", "3.60"),
		bookmaker("Marathon", "2.05", "3.35", "3.70"),
	}

	got, ok := DevigOdds(odds, DefaultBookmakers)
	require.True(t, ok)
	require.False(t, got.Curated)
	require.Len(t, got.Bookmakers, 2)
}

func TestDevigOdds_SkipsInvalidPrices(t *testing.T) {
	t.Parallel()

	_, ok := DevigOdds([]ExternalBookmakerOdds{
		bookmaker("Bet365", "1.00", "3.30", "3.60"),
		{Name: "Unibet"},
	}, DefaultBookmakers)
	require.False(t, ok)

	got, ok := DevigOdds([]ExternalBookmakerOdds{
		bookmaker("Bet365", "1.00", "3.30", "3.60"),
		bookmaker("Unibet", "2.50", "3.20", "2.90"),
	}, DefaultBookmakers)
	require.True(t, ok)
	require.Equal(t, []string{"Unibet"}, got.Bookmakers)
	require.False(t, math.IsNaN(got.Probabilities.Away))
}
