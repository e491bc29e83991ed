package operators

import (
	"github.com/evolvsys/evolv/pkg/recipe"
	"github.com/evolvsys/evolv/pkg/registry"
)

// Voices is the finite fixed set change_system draws from.
var Voices = []string{
	"Assistant", "Engineer", "Analyst", "Specialist", "Architect",
	"Researcher", "Writer", "Strategist",
}

// VoiceWeights gives task-class-weighted voice selection when the
// "systems-v2" flag is on: code weights Engineer/Analyst/
// Specialist/Architect higher than the uniform baseline.
var VoiceWeights = map[string]map[string]float64{
	"code": {
		"Engineer": 3, "Analyst": 2, "Specialist": 2, "Architect": 2,
		"Assistant": 1, "Researcher": 1, "Writer": 1, "Strategist": 1,
	},
}

// Nudges is the finite fixed set change_nudge draws from.
var Nudges = []string{
	"Be concise and correct.",
	"Think step by step before answering.",
	"Prioritize correctness over brevity.",
	"Explain your reasoning briefly, then give the answer.",
	"Favor simple, idiomatic solutions.",
	"Double-check edge cases before responding.",
}

// FewshotExamples is the finite fixed set add_fewshot draws from.
var FewshotExamples = []string{
	"Example: Q: What is 2+2? A: 4.",
	"Example: Q: Reverse \"abc\". A: \"cba\".",
	"Example: Q: Is 7 prime? A: Yes, 7 has no divisors other than 1 and itself.",
}

func weightedChoice(rnd recipe.Rand, items []string, weights map[string]float64) string {
	if weights == nil {
		return items[rnd.Intn(len(items))]
	}
	total := 0.0
	for _, it := range items {
		w, ok := weights[it]
		if !ok {
			w = 1
		}
		total += w
	}
	roll := rnd.Float64() * total
	acc := 0.0
	for _, it := range items {
		w, ok := weights[it]
		if !ok {
			w = 1
		}
		acc += w
		if roll < acc {
			return it
		}
	}
	return items[len(items)-1]
}

// SystemsV2Enabled lets change_system weight voices by the task class most
// recently passed to SetTaskClassWeighting. Both are package state only
// because the Operator.Apply signature is fixed to recipe+rand. Nothing in
// this module sets them, so by default change_system picks voices uniformly.
var SystemsV2Enabled bool
var currentTaskClassWeights map[string]float64

// SetTaskClassWeighting configures the weighting used by later
// change_system applications from VoiceWeights[taskClass]. A task class
// with no VoiceWeights entry falls back to uniform.
func SetTaskClassWeighting(taskClass string) {
	currentTaskClassWeights = VoiceWeights[taskClass]
}

func init() {
	Register("change_system", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "change_system",
			Group: recipe.GroupSEAL,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				var weights map[string]float64
				if SystemsV2Enabled {
					weights = currentTaskClassWeights
				}
				out.SystemVoice = weightedChoice(rnd, Voices, weights)
				return out
			},
		}, nil
	}))

	Register("change_nudge", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "change_nudge",
			Group: recipe.GroupSEAL,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.InstructionNudge = Nudges[rnd.Intn(len(Nudges))]
				return out
			},
		}, nil
	}))

	Register("add_fewshot", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "add_fewshot",
			Group: recipe.GroupSEAL,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.FewshotExample = FewshotExamples[rnd.Intn(len(FewshotExamples))]
				return out
			},
		}, nil
	}))

	Register("raise_temp", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "raise_temp",
			Group: recipe.GroupSampling,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Params.Temperature += 0.1 + rnd.Float64()*0.2 // uniform in [0.1, 0.3]
				out.Params.Clamp()
				return out
			},
		}, nil
	}))

	Register("lower_temp", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "lower_temp",
			Group: recipe.GroupSampling,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Params.Temperature -= 0.1 + rnd.Float64()*0.2
				out.Params.Clamp()
				return out
			},
		}, nil
	}))

	Register("raise_top_k", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "raise_top_k",
			Group: recipe.GroupSampling,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Params.TopK += 5 + rnd.Intn(11) // integer in [5, 15]
				out.Params.Clamp()
				return out
			},
		}, nil
	}))

	Register("lower_top_k", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "lower_top_k",
			Group: recipe.GroupSampling,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Params.TopK -= 5 + rnd.Intn(11)
				out.Params.Clamp()
				return out
			},
		}, nil
	}))

	Register("toggle_web", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "toggle_web",
			Group: recipe.GroupWEB,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Flags.UseWeb = !out.Flags.UseWeb
				return out
			},
		}, nil
	}))

	Register("inject_memory", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "inject_memory",
			Group: recipe.GroupWEB,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Flags.UseMemory = true
				return out
			},
		}, nil
	}))

	Register("inject_rag", registry.FromMapNoConfig(func(_ registry.NoConfig) (recipe.Operator, error) {
		return recipe.Operator{
			Name: "inject_rag",
			Group: recipe.GroupWEB,
			Apply: func(r recipe.Recipe, rnd recipe.Rand) recipe.Recipe {
				out := r.Clone()
				out.Flags.UseRAG = true
				return out
			},
		}, nil
	}))
}
