// Package judge implements the two-judge-plus-tiebreaker Judge Panel: a
// weighted-sampled multi-model panel blended with semantic similarity.
package judge

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/evolvsys/evolv/pkg/registry"
)

// PoolMember is one judge-model candidate: a gateway engine name paired
// with the registry.Config used to instantiate it, grounded on the
// teacher's generators.Create(name, registry.Config) factory idiom.
type PoolMember struct {
	EngineName string
	Config registry.Config
}

// ModelPool tracks per-model usage counts for inverse-frequency weighted
// sampling without replacement ("weight = 1 / (1 + usage_count[model])").
// Shared with the SME Proposer's model selection.
type ModelPool struct {
	mu sync.Mutex
	members []PoolMember
	usage map[string]int
	rnd *rand.Rand
}

// NewModelPool constructs a pool from a fixed set of members. A nil seed
// uses the process-global RNG source; a non-nil seed gives deterministic
// sampling for tests, matching the bandit's same convention.
func NewModelPool(members []PoolMember, seed *int64) *ModelPool {
	usage := make(map[string]int, len(members))
	for _, m := range members {
		usage[m.EngineName] = 0
	}
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(rand.Int63())
	}
	return &ModelPool{members: members, usage: usage, rnd: rand.New(src)}
}

// SampleWithoutReplacement draws k distinct pool members, weighted by
// inverse usage frequency. Drawing records usage immediately, so the
// weighting reflects cumulative usage across the whole pool, not just
// within one call.
func (p *ModelPool) SampleWithoutReplacement(k int) ([]PoolMember, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if k > len(p.members) {
		return nil, fmt.Errorf("judge pool: requested %d members but pool has %d", k, len(p.members))
	}

	remaining := make([]PoolMember, len(p.members))
	copy(remaining, p.members)

	out := make([]PoolMember, 0, k)
	for i := 0; i < k; i++ {
		weights := make([]float64, len(remaining))
		var total float64
		for j, m := range remaining {
			w := 1.0 / (1.0 + float64(p.usage[m.EngineName]))
			weights[j] = w
			total += w
		}
		r := p.rnd.Float64() * total
		var acc float64
		chosen := len(remaining) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				chosen = j
				break
			}
		}
		m := remaining[chosen]
		p.usage[m.EngineName]++
		out = append(out, m)
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return out, nil
}

// UsageCounts returns a snapshot of per-model draw counts, for
// diagnostics and persistence.
func (p *ModelPool) UsageCounts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.usage))
	for k, v := range p.usage {
		out[k] = v
	}
	return out
}
