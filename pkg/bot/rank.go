package bot

import (
	"sort"

	"grandmaster/pkg/marketdata"
)

// RankedCandidate is a scored symbol from one scan. Momentum is a proxy
// for now: it carries the same day-change reading, so both qualification
// thresholds gate on the same signal until a real momentum source
// replaces it.
type RankedCandidate struct {
	Symbol       string
	Momentum     float64
	DayChangePct float64
	Price        float64
}

// Ranker scores and filters quote batches.
type Ranker struct {
	config Config
}

func NewRanker(config Config) Ranker {
	return Ranker{config: config}
}

// Rank drops quotes below the price floor and orders the rest by
// day-change descending. The sort is stable: ties keep the order the
// quotes came in.
func (r Ranker) Rank(quotes []marketdata.Quote) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(quotes))
	for _, q := range quotes {
		if q.Price < r.config.MinPrice {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Symbol:       q.Symbol,
			Momentum:     q.DayChangePct, // momentum proxy = day pct
			DayChangePct: q.DayChangePct,
			Price:        q.Price,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Momentum > ranked[j].Momentum
	})
	return ranked
}

// Qualifies reports whether a candidate clears both entry thresholds.
// Both bounds are inclusive.
func (r Ranker) Qualifies(dayPct, momentum float64) bool {
	return momentum >= r.config.MinMomentumPct && dayPct >= r.config.MinDayPct
}

// Qualified filters ranked candidates down to the ones clearing the
// entry thresholds, preserving rank order.
func (r Ranker) Qualified(ranked []RankedCandidate) []RankedCandidate {
	out := make([]RankedCandidate, 0, len(ranked))
	for _, c := range ranked {
		if r.Qualifies(c.DayChangePct, c.Momentum) {
			out = append(out, c)
		}
	}
	return out
}

// ForceCandidates synthesizes up to n candidates from raw quotes,
// requiring only the price floor. Used once, on the first scan cycle,
// when nothing qualifies and the force-buy flag is on.
func (r Ranker) ForceCandidates(quotes []marketdata.Quote, n int) []RankedCandidate {
	var out []RankedCandidate
	for _, q := range quotes {
		if len(out) >= n {
			break
		}
		if q.Price < r.config.MinPrice {
			continue
		}
		out = append(out, RankedCandidate{
			Symbol:       q.Symbol,
			Momentum:     0.0,
			DayChangePct: q.DayChangePct,
			Price:        q.Price,
		})
	}
	return out
}
