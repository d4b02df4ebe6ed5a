package preference

import (
	"math"
	"sort"
	"time"
)

const decayDays = 7.0

// recencyWeight is exp(-days/7) with fractional days. Future timestamps
// count as now.
func recencyWeight(now, at time.Time) float64 {
	days := now.Sub(at).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / decayDays)
}

// scoreBoard accumulates scores and remembers first-seen order so equal
// scores rank deterministically for a given event order.
type scoreBoard struct {
	order  []string
	scores map[string]float64
}

func newScoreBoard() *scoreBoard {
	return &scoreBoard{scores: map[string]float64{}}
}

func (b *scoreBoard) add(key string, v float64) {
	if key == "" {
		return
	}
	if _, ok := b.scores[key]; !ok {
		b.order = append(b.order, key)
	}
	b.scores[key] += v
}

func (b *scoreBoard) top(n int) []string {
	keys := make([]string, len(b.order))
	copy(keys, b.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return b.scores[keys[i]] > b.scores[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// priceBand returns p[floor(n*0.25)] and p[floor(n*0.75)] of the sorted
// prices, or nils when there are none.
func priceBand(prices []float64) (lo, hi *float64) {
	n := len(prices)
	if n == 0 {
		return nil, nil
	}
	sorted := make([]float64, n)
	copy(sorted, prices)
	sort.Float64s(sorted)

	l := sorted[clampIndex(int(math.Floor(float64(n)*0.25)), n)]
	h := sorted[clampIndex(int(math.Floor(float64(n)*0.75)), n)]
	return &l, &h
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
