package scoring

// Strategy is forwarded to the analyze endpoint as-is. The client never
// interprets it; the known values only feed completion and selectors.
type Strategy string

const (
	StrategySmart    Strategy = "smart"
	StrategyFastest  Strategy = "fastest"
	StrategyImpact   Strategy = "impact"
	StrategyDeadline Strategy = "deadline"
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = StrategySmart

// KnownStrategies returns the strategies offered by selectors, in display order.
func KnownStrategies() []Strategy {
	return []Strategy{StrategySmart, StrategyFastest, StrategyImpact, StrategyDeadline}
}

// Label returns a human-readable name for selectors.
func (s Strategy) Label() string {
	switch s {
	case StrategySmart:
		return "Smart Balance"
	case StrategyFastest:
		return "Fastest Wins"
	case StrategyImpact:
		return "High Impact"
	case StrategyDeadline:
		return "Deadline Driven"
	default:
		return string(s)
	}
}

// Next returns the strategy after s in KnownStrategies, wrapping around.
// An unknown strategy cycles back to the first known one.
func (s Strategy) Next() Strategy {
	known := KnownStrategies()
	for i, k := range known {
		if k == s {
			return known[(i+1)%len(known)]
		}
	}
	return known[0]
}
