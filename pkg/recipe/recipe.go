// Package recipe defines the tunable description of how the engine prompts
// an LM, and the operators that mutate it.
//
// A Recipe is applied to a context bundle to produce a Plan: the fully
// realized prompt and sampling options sent to the LM Gateway.
package recipe

import "time"

// OperatorGroup masks which operator families a run may draw from.
type OperatorGroup uint8

const (
	GroupSEAL OperatorGroup = 1 << iota
	GroupWEB
	GroupSampling
)

// DefaultGroups is the mask used when a run does not specify a framework mask.
const DefaultGroups = GroupSEAL | GroupSampling | GroupWEB

// Params holds the continuous sampling parameters mutated by operators.
type Params struct {
	Temperature float64 `json:"temperature"`
	TopK int `json:"top_k"`
}

// Bounds an operator must respect when mutating Params.
const (
	MinTemperature = 0.1
	MaxTemperature = 1.5
	MinTopK = 1
	MaxTopK = 100
)

// Clamp restricts params to their bounds in place.
func (p *Params) Clamp() {
	if p.Temperature < MinTemperature {
		p.Temperature = MinTemperature
	}
	if p.Temperature > MaxTemperature {
		p.Temperature = MaxTemperature
	}
	if p.TopK < MinTopK {
		p.TopK = MinTopK
	}
	if p.TopK > MaxTopK {
		p.TopK = MaxTopK
	}
}

// Flags gate which context sources are assembled into the Plan.
type Flags struct {
	UseRAG bool `json:"use_rag"`
	UseMemory bool `json:"use_memory"`
	UseWeb bool `json:"use_web"`
}

// Recipe is the tuple mutated across iterations of an evolution run.
type Recipe struct {
	SystemVoice string `json:"system_voice"`
	InstructionNudge string `json:"instruction_nudge"`
	Params Params `json:"params"`
	Flags Flags `json:"flags"`
	FewshotExample string `json:"fewshot_example,omitempty"`
	EngineHint string `json:"engine_hint,omitempty"`
}

// Clone returns a deep-enough copy; Recipe has no reference fields beyond
// strings, so a value copy already isolates mutation, but Clone documents
// the intent at call sites the way a pointer-copy idiom would elsewhere.
func (r Recipe) Clone() Recipe {
	return r
}

// Default returns the base recipe used when no approved recipe exists yet
// for a task class.
func Default() Recipe {
	return Recipe{
		SystemVoice: "Assistant",
		InstructionNudge: "Be concise and correct.",
		Params: Params{Temperature: 0.7, TopK: 40},
	}
}

// Plan is the fully realized prompt produced by applying a Recipe to a
// context bundle.
type Plan struct {
	PromptText string `json:"prompt_text"`
	SystemText string `json:"system_text"`
	SamplingOptions Params `json:"sampling_options"`
}

// Operator is a named pure function recipe -> recipe.
type Operator struct {
	Name string
	Group OperatorGroup
	Apply func(r Recipe, rnd Rand) Recipe
}

// Rand is the minimal random source operators draw from, so selection and
// mutation can be made deterministic from a per-iteration seed without
// operators depending on math/rand directly.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Stats is the per-operator running state, persistent across runs.
type Stats struct {
	Pulls int `json:"pulls"`
	MeanPayoff float64 `json:"mean_payoff"`
	AvgReward float64 `json:"avg_reward"`
	TotalLatencyMS int64 `json:"total_latency_ms"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Update folds one more observation into the running means. mean_payoff is
// the authoritative signal; avg_reward is maintained in
// parallel for UI continuity and currently tracks the same observations.
func (s *Stats) Update(reward float64, latencyMS int64, now time.Time) {
	n := s.Pulls
	s.MeanPayoff = ((s.MeanPayoff * float64(n)) + reward) / float64(n+1)
	s.AvgReward = ((s.AvgReward * float64(n)) + reward) / float64(n+1)
	s.Pulls = n + 1
	s.TotalLatencyMS += latencyMS
	s.LastUsedAt = now
}

// EngineStatsKey partitions stats by (operator, engine).
type EngineStatsKey struct {
	Operator string
	Engine string
}
