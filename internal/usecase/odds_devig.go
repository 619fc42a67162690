package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBookmakers is the curated set used for market consensus.
var DefaultBookmakers = []string{"Bet365", "Pinnacle", "Unibet", "Betfair", "William Hill"}

var decimalOne = decimal.NewFromInt(1)

// OutcomeValues holds one number per 1X2 outcome.
type OutcomeValues struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// MarketConsensus is the margin-free view of a 1X2 market.
type MarketConsensus struct {
	Bookmakers    []string      `json:"bookmakers"`
	Curated       bool          `json:"curated"`
	Probabilities OutcomeValues `json:"probabilities"`
	FairOdds      OutcomeValues `json:"fair_odds"`
	StdDev        OutcomeValues `json:"std_dev"`
	AverageMargin float64       `json:"average_margin"`
}

type impliedRow struct {
	name   string
	home   decimal.Decimal
	draw   decimal.Decimal
	away   decimal.Decimal
	margin decimal.Decimal
}

// DevigOdds averages implied probabilities across bookmakers and removes the
// margin by normalizing the averages to sum to one. Only curated bookmakers
// are used when any of them quote the market; otherwise every valid quote is
// used and Curated is false. Decimal arithmetic keeps the result independent
// of input order. ok is false when no bookmaker has a valid quote.
func DevigOdds(odds []ExternalBookmakerOdds, curated []string) (MarketConsensus, bool) {
	valid := make([]impliedRow, 0, len(odds))
	for _, item := range odds {
		row, ok := toImplied(item)
		if ok {
			valid = append(valid, row)
		}
	}
	if len(valid) == 0 {
		return MarketConsensus{}, false
	}

	rows, isCurated := filterCurated(valid, curated)
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	count := decimal.NewFromInt(int64(len(rows)))
	var sumHome, sumDraw, sumAway, sumMargin decimal.Decimal
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		sumHome = sumHome.Add(row.home)
		sumDraw = sumDraw.Add(row.draw)
		sumAway = sumAway.Add(row.away)
		sumMargin = sumMargin.Add(row.margin)
		names = append(names, row.name)
	}

	avgHome := sumHome.Div(count)
	avgDraw := sumDraw.Div(count)
	avgAway := sumAway.Div(count)
	total := avgHome.Add(avgDraw).Add(avgAway)

	fairHome := avgHome.Div(total)
	fairDraw := avgDraw.Div(total)
	fairAway := avgAway.Div(total)

	out := MarketConsensus{
		Bookmakers: names,
		Curated:    isCurated,
		Probabilities: OutcomeValues{
			Home: fairHome.Round(6).InexactFloat64(),
			Draw: fairDraw.Round(6).InexactFloat64(),
			Away: fairAway.Round(6).InexactFloat64(),
		},
		FairOdds: OutcomeValues{
			Home: decimalOne.Div(fairHome).Round(3).InexactFloat64(),
			Draw: decimalOne.Div(fairDraw).Round(3).InexactFloat64(),
			Away: decimalOne.Div(fairAway).Round(3).InexactFloat64(),
		},
		StdDev: OutcomeValues{
			Home: stdDev(rows, avgHome, func(r impliedRow) decimal.Decimal { return r.home }),
			Draw: stdDev(rows, avgDraw, func(r impliedRow) decimal.Decimal { return r.draw }),
			Away: stdDev(rows, avgAway, func(r impliedRow) decimal.Decimal { return r.away }),
		},
		AverageMargin: sumMargin.Div(count).Round(6).InexactFloat64(),
	}
	return out, true
}

func toImplied(item ExternalBookmakerOdds) (impliedRow, bool) {
	for _, price := range []decimal.Decimal{item.Home, item.Draw, item.Away} {
		if price.LessThanOrEqual(decimalOne) {
			return impliedRow{}, false
		}
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return impliedRow{}, false
	}

	home := decimalOne.Div(item.Home)
	draw := decimalOne.Div(item.Draw)
	away := decimalOne.Div(item.Away)
	return impliedRow{
		name:   name,
		home:   home,
		draw:   draw,
		away:   away,
		margin: home.Add(draw).Add(away).Sub(decimalOne),
	}, true
}

func filterCurated(rows []impliedRow, curated []string) ([]impliedRow, bool) {
	if len(curated) == 0 {
		return rows, false
	}
	allowed := make(map[string]struct{}, len(curated))
	for _, name := range curated {
		allowed[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	out := make([]impliedRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := allowed[strings.ToLower(row.name)]; ok {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return rows, false
	}
	return out, true
}

// stdDev is the population standard deviation of one outcome's implied
// probability across bookmakers.
func stdDev(rows []impliedRow, mean decimal.Decimal, pick func(impliedRow) decimal.Decimal) float64 {
	if len(rows) < 2 {
		return 0
	}
	var sum decimal.Decimal
	for _, row := range rows {
		diff := pick(row).Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}
	variance := sum.Div(decimal.NewFromInt(int64(len(rows)))).InexactFloat64()
	return math.Round(math.Sqrt(variance)*1e6) / 1e6
}
