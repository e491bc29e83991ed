package memory

// Default tuning constants for the episodic store. Wired through
// internal/config in the CLI; these are the package defaults a Store
// falls back to when constructed with a zero Config.
const (
	DefaultRewardFloor = 0.5
	DefaultMinConfidence = 0.5
	DefaultBaselineReward = 0.5
	DefaultStoreMaxSize = 1000
	DefaultRewardWeight = 0.3
	DefaultDecayDays = 30.0
	DefaultPrimerTokensMax = 200
	DefaultCandidateLimit = 100
)

// Config parameterizes a Store's pollution guards, scoring weights, and
// primer budget.
type Config struct {
	RewardFloor float64
	MinConfidence float64
	BaselineReward float64
	StoreMaxSize int
	TaskClassFuzzy bool
	RewardWeight float64
	TimeDecay bool
	DecayDays float64
	PollutionGuard bool
	PrimerTokensMax int
}

// DefaultConfig returns the default tuning: pollution guard on,
// fuzzy matching on, time decay on.
func DefaultConfig() Config {
	return Config{
		RewardFloor: DefaultRewardFloor,
		MinConfidence: DefaultMinConfidence,
		BaselineReward: DefaultBaselineReward,
		StoreMaxSize: DefaultStoreMaxSize,
		TaskClassFuzzy: true,
		RewardWeight: DefaultRewardWeight,
		TimeDecay: true,
		DecayDays: DefaultDecayDays,
		PollutionGuard: true,
		PrimerTokensMax: DefaultPrimerTokensMax,
	}
}
