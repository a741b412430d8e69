package portfolio

import (
	"sort"

	"github.com/Romequinco/cartera/internal/modules/markowitz"
)

// Metrics summarizes performance and structure for one portfolio.
type Metrics struct {
	Return         float64
	Volatility     float64
	Sharpe         float64
	Herfindahl     float64 // sum of squared risky weights: 0 spread out, 1 concentrated
	NumSignificant int     // risky weights above 1%
	MaxWeight      float64
	RFWeight       float64
}

// Compute derives structure metrics from a solved portfolio.
func Compute(p *markowitz.Portfolio) Metrics {
	m := Metrics{
		Return:     p.Return,
		Volatility: p.Volatility,
		Sharpe:     p.Sharpe,
		RFWeight:   p.RFWeight,
	}
	for _, w := range p.Weights {
		m.Herfindahl += w * w
		if w > 0.01 {
			m.NumSignificant++
		}
		if w > m.MaxWeight {
			m.MaxWeight = w
		}
	}
	return m
}

// Candidate pairs a strategy name with its solved portfolio.
type Candidate struct {
	Name      string
	Portfolio *markowitz.Portfolio
}

// Comparison is one row of the strategy comparison table.
type Comparison struct {
	Name    string
	Metrics Metrics
}

// Compare builds a comparison table sorted by Sharpe, descending.
func Compare(candidates []Candidate) []Comparison {
	out := make([]Comparison, 0, len(candidates))
	for _, c := range candidates {
		if c.Portfolio == nil {
			continue
		}
		out = append(out, Comparison{Name: c.Name, Metrics: Compute(c.Portfolio)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics.Sharpe > out[j].Metrics.Sharpe
	})
	return out
}

// Best picks the winning strategy by criterion: "sharpe" or "return" pick
// the maximum, "volatility" the minimum. Returns false when no candidate
// qualifies.
func Best(candidates []Candidate, criterion string) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.Portfolio == nil {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		switch criterion {
		case "volatility":
			if c.Portfolio.Volatility < best.Portfolio.Volatility {
				best = c
			}
		case "return":
			if c.Portfolio.Return > best.Portfolio.Return {
				best = c
			}
		default: // sharpe
			if c.Portfolio.Sharpe > best.Portfolio.Sharpe {
				best = c
			}
		}
	}
	return best, found
}
