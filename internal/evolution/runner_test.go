package evolution

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/internal/gateway"
	"github.com/evolvsys/evolv/internal/judge"
	"github.com/evolvsys/evolv/pkg/metrics"
	"github.com/evolvsys/evolv/pkg/recipe"
	"github.com/evolvsys/evolv/pkg/registry"
)

type fakeLocalEngine struct{ n int }

func (f *fakeLocalEngine) Call(ctx context.Context, prompt, system string, opts gateway.Options) (string, string, error) {
	f.n++
	return fmt.Sprintf("response number %d with some reasoning: first, because it matters.", f.n), "fake-local", nil
}
func (f *fakeLocalEngine) Stream(ctx context.Context, prompt, system string, opts gateway.Options) (<-chan gateway.Token, error) {
	return nil, fmt.Errorf("not implemented")
}
func (f *fakeLocalEngine) Health(ctx context.Context) (gateway.Health, error) {
	return gateway.Health{Status: "ok"}, nil
}
func (f *fakeLocalEngine) Name() string { return "fake-local" }

type fakeJudgeEngine struct{ score float64 }

func (f *fakeJudgeEngine) Call(ctx context.Context, prompt, system string, opts gateway.Options) (string, string, error) {
	return fmt.Sprintf(`{"score": %v, "reasoning": "fine", "strengths": [], "weaknesses": []}`, f.score), "fake-judge", nil
}
func (f *fakeJudgeEngine) Stream(ctx context.Context, prompt, system string, opts gateway.Options) (<-chan gateway.Token, error) {
	return nil, fmt.Errorf("not implemented")
}
func (f *fakeJudgeEngine) Health(ctx context.Context) (gateway.Health, error) {
	return gateway.Health{Status: "ok"}, nil
}
func (f *fakeJudgeEngine) Name() string { return "fake-judge" }

func TestRunner_RunProducesVariantsAndPromotes(t *testing.T) {
	gateway.Register("evo-fake-local", func(registry.Config) (gateway.Engine, error) {
		return &fakeLocalEngine{}, nil
	})
	gateway.Register("evo-fake-judge-a", func(registry.Config) (gateway.Engine, error) {
		return &fakeJudgeEngine{score: 0.8}, nil
	})
	gateway.Register("evo-fake-judge-b", func(registry.Config) (gateway.Engine, error) {
		return &fakeJudgeEngine{score: 0.82}, nil
	})

	pool := judge.NewModelPool([]judge.PoolMember{
		{EngineName: "evo-fake-judge-a"},
		{EngineName: "evo-fake-judge-b"},
	}, seedPtr(7))
	embedder, err := embed.NewLocalHash(embed.LocalHashConfig{Dim: 32})
	require.NoError(t, err)

	runner := &Runner{
		LocalEngineName: "evo-fake-local",
		JudgePool: pool,
		Embedder: embedder,
	}

	seed := int64(42)
	result, err := runner.Run(context.Background(), Spec{
		TaskClass: "general",
		Task: "say hello politely",
		Assertions: nil,
		N: 5,
		Flags: Flags{
			BanditAlgo: "epsilon_greedy",
			JudgeMode: "pairwise_groq",
			Seed: &seed,
		},
	})
	require.NoError(t, err)

	assert.Len(t, result.Variants, 5)
	require.NotNil(t, result.BestVariant)
	assert.True(t, result.Promoted)
	assert.GreaterOrEqual(t, result.StepsToBest, 1)
	assert.LessOrEqual(t, result.StepsToBest, 5)
	assert.Len(t, result.Run.OperatorSequence, 5)
	assert.NotNil(t, result.Run.FinishedAt)
}

func TestRunner_RunIncrementsMetrics(t *testing.T) {
	pool := judge.NewModelPool([]judge.PoolMember{
		{EngineName: "evo-fake-judge-a"},
		{EngineName: "evo-fake-judge-b"},
	}, seedPtr(3))
	embedder, err := embed.NewLocalHash(embed.LocalHashConfig{Dim: 32})
	require.NoError(t, err)

	m := &metrics.Metrics{}
	runner := &Runner{
		LocalEngineName: "evo-fake-local",
		JudgePool: pool,
		Embedder: embedder,
		Metrics: m,
	}

	seed := int64(9)
	_, err = runner.Run(context.Background(), Spec{
		TaskClass: "general",
		Task: "say hello",
		N: 3,
		Flags: Flags{BanditAlgo: "epsilon_greedy", Seed: &seed},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, m.RunsTotal)
	assert.EqualValues(t, 3, m.VariantsTotal)
	assert.GreaterOrEqual(t, m.VariantsPromoted, int64(1))
}

func TestRunner_UnknownBanditAlgoErrors(t *testing.T) {
	runner := &Runner{LocalEngineName: "evo-fake-local"}
	_, err := runner.Run(context.Background(), Spec{TaskClass: "general", Task: "x", N: 1, Flags: Flags{BanditAlgo: "nonsense"}})
	assert.Error(t, err)
}

func TestFlagsResolvedMaskDefaultsToAllGroups(t *testing.T) {
	f := Flags{}
	assert.Equal(t, recipe.DefaultGroups, f.resolvedMask())
}

func seedPtr(i int64) *int64 { return &i }
