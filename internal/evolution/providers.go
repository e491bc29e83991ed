package evolution

import (
	"context"

	"github.com/evolvsys/evolv/pkg/recipe"
)

// MemoryPrimer is implemented by internal/memory's episodic store.
// Decoupled via an interface so the Evolution Runner can be built and
// tested independently of any concrete memory implementation.
type MemoryPrimer interface {
	Primer(ctx context.Context, taskClass, query string, k int) (string, error)
}

// RAGFetcher retrieves a retrieval-augmented-generation context block.
type RAGFetcher interface {
	Fetch(ctx context.Context, query string, k int) (string, error)
}

// WebFetcher retrieves a web-search context block.
type WebFetcher interface {
	Fetch(ctx context.Context, query string) (string, error)
}

// RecipeSource resolves the top approved recipe for a task class, along
// with the reward/cost it was promoted at ("Base recipe = top
// approved recipe for the task class if one exists; else defaults" and
// the promotion policy's baseline comparison). No type in this module
// implements it; a Runner with a nil RecipeSource has no baseline.
type RecipeSource interface {
	TopApproved(ctx context.Context, taskClass string) (rec RecipeBaseline, ok bool)
}

// RecipeBaseline is a previously promoted recipe plus the reward/cost it
// was measured at, the comparison point for this run's promotion policy.
type RecipeBaseline struct {
	Recipe recipe.Recipe
	TotalReward float64
	CostPenalty float64
}

// StatsStore persists Operator Stats across runs ("persistent
// across runs"), partitioned both by operator alone and by (operator,
// engine) pair.
type StatsStore interface {
	LoadOperatorStats(ctx context.Context) (map[string]recipe.Stats, error)
	SaveOperatorStats(ctx context.Context, stats map[string]recipe.Stats) error
	LoadEngineStats(ctx context.Context) (map[recipe.EngineStatsKey]recipe.Stats, error)
	SaveEngineStats(ctx context.Context, stats map[recipe.EngineStatsKey]recipe.Stats) error
}
