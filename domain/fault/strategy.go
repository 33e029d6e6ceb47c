package fault

// Strategy names how the host recovers from a classified fault.
type Strategy string

const (
	StrategyRetry          Strategy = "retry"
	StrategyFallback       Strategy = "fallback"
	StrategySkip           Strategy = "skip"
	StrategyFail           Strategy = "fail"
	StrategySwitchProvider Strategy = "switchprovider"
	StrategyUseCache       Strategy = "usecache"
)

// IsValid returns true if the strategy is a recognized recovery strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyRetry, StrategyFallback, StrategySkip, StrategyFail,
		StrategySwitchProvider, StrategyUseCache:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// DefaultStrategies returns the construction-time kind to strategy mapping.
// Authentication and validation faults are not worth repeating; remote tool
// faults have a local fallback path; provider faults suggest switching the
// text-generation backend.
func DefaultStrategies() map[Kind]Strategy {
	return map[Kind]Strategy{
		KindNetwork:    StrategyRetry,
		KindAPI:        StrategyRetry,
		KindTimeout:    StrategyRetry,
		KindAuth:       StrategyFail,
		KindRateLimit:  StrategyRetry,
		KindValidation: StrategyFail,
		KindFile:       StrategyRetry,
		KindRemoteTool: StrategyFallback,
		KindProvider:   StrategySwitchProvider,
		KindUnknown:    StrategyRetry,
	}
}
