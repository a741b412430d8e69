package topdown

// Strategy is a named target-exposure profile over the factor set.
// Factors absent from Targets get a neutral 0 exposure.
type Strategy struct {
	Name        string
	Description string
	Targets     map[string]float64
}

// Built-in strategies.
var (
	// MomentumLowVol tilts toward recent winners while shunning volatile
	// names: quality momentum.
	MomentumLowVol = Strategy{
		Name:        "momentum_lowvol",
		Description: "High momentum exposure, low 63-day volatility",
		Targets: map[string]float64{
			"momentum": 0.7,
			"vol_63d":  -0.5,
		},
	}

	// Quality bets on persistence of historical risk-adjusted performance.
	Quality = Strategy{
		Name:        "quality",
		Description: "High historical Sharpe exposure",
		Targets: map[string]float64{
			"sharpe_hist": 0.8,
		},
	}

	// Neutral tracks zero exposure on every factor: the minimum-risk,
	// minimum-turnover baseline.
	Neutral = Strategy{
		Name:        "neutral",
		Description: "No factor preference",
		Targets:     map[string]float64{},
	}
)

// Strategies lists the built-in profiles in presentation order.
var Strategies = []Strategy{MomentumLowVol, Quality, Neutral}

// StrategyByName looks up a built-in strategy. The second return is false
// when the name is unknown.
func StrategyByName(name string) (Strategy, bool) {
	for _, s := range Strategies {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// Vector expands the strategy's sparse targets into a dense vector aligned
// with the given factor order.
func (s Strategy) Vector(factorNames []string) []float64 {
	out := make([]float64, len(factorNames))
	for i, name := range factorNames {
		out[i] = s.Targets[name]
	}
	return out
}
