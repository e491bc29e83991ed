package proposer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvsys/evolv/internal/gateway"
	"github.com/evolvsys/evolv/internal/judge"
	"github.com/evolvsys/evolv/pkg/evoltypes"
	"github.com/evolvsys/evolv/pkg/registry"
)

type scriptedEngine struct {
	responses []string
	calls int
}

func (e *scriptedEngine) Call(ctx context.Context, prompt, system string, opts gateway.Options) (string, string, error) {
	if e.calls >= len(e.responses) {
		e.calls++
		return e.responses[len(e.responses)-1], "scripted", nil
	}
	r := e.responses[e.calls]
	e.calls++
	return r, "scripted", nil
}
func (e *scriptedEngine) Stream(ctx context.Context, prompt, system string, opts gateway.Options) (<-chan gateway.Token, error) {
	return nil, fmt.Errorf("not implemented")
}
func (e *scriptedEngine) Health(ctx context.Context) (gateway.Health, error) {
	return gateway.Health{Status: "ok"}, nil
}
func (e *scriptedEngine) Name() string { return "scripted" }

func seedPtr(n int64) *int64 { return &n }

func TestGenerateProducesValidPatchFromGoodJSON(t *testing.T) {
	good := `{"area":"bandit","rationale":"tune epsilon","diff_lines":["--- a/internal/bandit/policy.go","+++ b/internal/bandit/policy.go","@@ -1,1 +1,2 @@"," package bandit","+// tuned"]}`
	gateway.Register("proposer-fake-good", func(registry.Config) (gateway.Engine, error) {
		return &scriptedEngine{responses: []string{good}}, nil
	})

	p := &Proposer{DefaultEngineName: "proposer-fake-good"}
	resp := p.Generate(context.Background(), 1)

	require.Len(t, resp.Patches, 1)
	assert.Empty(t, resp.Rejected)
	assert.Equal(t, evoltypes.AreaBandit, resp.Patches[0].Area)
}

func TestGenerateInjectsSmokePatchWhenAllRejected(t *testing.T) {
	gateway.Register("proposer-fake-bad", func(registry.Config) (gateway.Engine, error) {
		return &scriptedEngine{responses: []string{"not json at all", "still not json"}}, nil
	})

	p := &Proposer{DefaultEngineName: "proposer-fake-bad"}
	resp := p.Generate(context.Background(), 1)

	require.Len(t, resp.Patches, 1)
	assert.Equal(t, "smoke", resp.Patches[0].ID)
	assert.Len(t, resp.Rejected, 1)
}

func TestGenerateRetriesOnceBeforeRejecting(t *testing.T) {
	good := `{"area":"bandit","rationale":"retry worked","diff_lines":["--- a/internal/bandit/policy.go","+++ b/internal/bandit/policy.go","@@ -1,1 +1,2 @@"," package bandit","+// retried"]}`
	engine := &scriptedEngine{responses: []string{"garbage", good}}
	gateway.Register("proposer-fake-retry", func(registry.Config) (gateway.Engine, error) {
		return engine, nil
	})

	p := &Proposer{DefaultEngineName: "proposer-fake-retry"}
	resp := p.Generate(context.Background(), 1)

	require.Len(t, resp.Patches, 1)
	assert.Equal(t, "retry worked", resp.Patches[0].Notes)
}

func TestGenerateRejectsLOCDeltaExceeded(t *testing.T) {
	diffLines := []string{`"--- a/internal/bandit/policy.go"`, `"+++ b/internal/bandit/policy.go"`, `"@@ -1,60 +1,1 @@"`}
	for i := 0; i < 60; i++ {
		diffLines = append(diffLines, `"-line"`)
	}
	huge := fmt.Sprintf(`{"area":"bandit","rationale":"too big","diff_lines":[%s]}`, joinCSV(diffLines))
	gateway.Register("proposer-fake-huge", func(registry.Config) (gateway.Engine, error) {
		return &scriptedEngine{responses: []string{huge, huge}}, nil
	})

	p := &Proposer{DefaultEngineName: "proposer-fake-huge"}
	resp := p.Generate(context.Background(), 1)

	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, evoltypes.ReasonLOCDeltaExceeded, resp.Rejected[0].Reason)
}

func TestGeneratePrefersJudgePoolOverDefault(t *testing.T) {
	good := `{"area":"rag","rationale":"from pool","diff_lines":["--- a/internal/rag/x.go","+++ b/internal/rag/x.go","@@ -1,1 +1,2 @@"," package rag","+// pooled"]}`
	gateway.Register("proposer-pool-member", func(registry.Config) (gateway.Engine, error) {
		return &scriptedEngine{responses: []string{good}}, nil
	})
	gateway.Register("proposer-unused-default", func(registry.Config) (gateway.Engine, error) {
		return &scriptedEngine{responses: []string{"garbage"}}, nil
	})

	pool := judge.NewModelPool([]judge.PoolMember{{EngineName: "proposer-pool-member"}}, seedPtr(1))
	p := &Proposer{JudgePool: pool, DefaultEngineName: "proposer-unused-default"}
	resp := p.Generate(context.Background(), 1)

	require.Len(t, resp.Patches, 1)
	assert.Equal(t, "from pool", resp.Patches[0].Notes)
}

func joinCSV(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}
