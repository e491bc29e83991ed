// Package canary implements the live-traffic Canary Manager: it tracks
// deployments and performs the Bernoulli routing trial that decides
// whether a given request goes to the canary or the baseline.
package canary

import (
	"math/rand"
	"sync"
	"time"

	"github.com/evolvsys/evolv/internal/sme/guards"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// minCanarySamples is the minimum canary_requests before guard evaluation
// runs.
const minCanarySamples = 5

// Manager tracks, at most, one active canary deployment system-wide.
// Bernoulli routing and counter increments happen under a single mutex
// whose hold time is a handful of arithmetic ops ("lock-hold
// time < a few microseconds"); rate/mean derivations always read a copied
// snapshot outside the lock, grounded on pkg/ratelimit.Limiter's
// lock-minimal refillLocked idiom.
type Manager struct {
	mu sync.Mutex
	canaries map[string]*evoltypes.CanaryDeployment
	rnd *rand.Rand
}

// New constructs an empty Manager. A nil seed seeds the Manager's own
// source from the current time.
func New(seed *int64) *Manager {
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Manager{canaries: make(map[string]*evoltypes.CanaryDeployment), rnd: rand.New(src)}
}

// Start begins a canary deployment for patchID. Any currently active
// canary (for this or another patch id) transitions to superseded first,
// so at most one canary is active.
func (m *Manager) Start(patchID string, trafficShare float64, targetRuns int64) *evoltypes.CanaryDeployment {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.canaries {
		if existing.Status == evoltypes.CanaryActive {
			existing.Status = evoltypes.CanarySuperseded
		}
	}

	dep := &evoltypes.CanaryDeployment{
		PatchID: patchID,
		TrafficShare: trafficShare,
		TargetRuns: targetRuns,
		StartTime: time.Now(),
		Status: evoltypes.CanaryActive,
	}
	m.canaries[patchID] = dep
	return dep
}

// Get returns the deployment record for patchID, if any.
func (m *Manager) Get(patchID string) (evoltypes.CanaryDeployment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dep, ok := m.canaries[patchID]
	if !ok {
		return evoltypes.CanaryDeployment{}, false
	}
	return *dep, true
}

// ActiveCanary returns the single active canary, if one exists. At most
// one canary is active at any moment across the process.
func (m *Manager) ActiveCanary() (evoltypes.CanaryDeployment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dep := range m.canaries {
		if dep.Status == evoltypes.CanaryActive {
			return *dep, true
		}
	}
	return evoltypes.CanaryDeployment{}, false
}

// ShouldRoute runs the O(1) Bernoulli trial deciding whether this request
// should be routed to the active canary. Returns ("", false) if no canary
// is active or it has already reached its target run count.
func (m *Manager) ShouldRoute() (patchID string, route bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, dep := range m.canaries {
		if dep.Status != evoltypes.CanaryActive {
			continue
		}
		if dep.Metrics.Canary.Requests >= dep.TargetRuns {
			continue
		}
		return id, m.rnd.Float64() < dep.TrafficShare
	}
	return "", false
}

// RecordRequest updates the cohort metrics for patchID after a request
// completes, transitioning to completed once TargetRuns is reached.
// isCanary selects which cohort (canary vs baseline) the request belongs
// to: routing decisions outside the canary's Bernoulli trial still
// contribute to the baseline cohort so the comparison stays apples-to-apples.
func (m *Manager) RecordRequest(patchID string, isCanary bool, errored bool, latencyMS float64, reward float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dep, ok := m.canaries[patchID]
	if !ok {
		return
	}

	cohort := &dep.Metrics.Baseline
	if isCanary {
		cohort = &dep.Metrics.Canary
	}
	cohort.Requests++
	if errored {
		cohort.Errors++
	}
	cohort.LatencySum += latencyMS
	cohort.RewardSum += reward

	if isCanary && dep.Status == evoltypes.CanaryActive && dep.Metrics.Canary.Requests >= dep.TargetRuns {
		dep.Status = evoltypes.CanaryCompleted
	}
}

// CheckGuards evaluates the canary's rolling metrics against thresholds,
// requiring at least minCanarySamples canary requests first. A violation
// transitions status to rolled_back and records the reason; the returned
// GuardResult has the same shape as a shadow evaluation's, applied to
// canary-vs-baseline deltas instead of shadow before/after.
func (m *Manager) CheckGuards(patchID string, thresholds guards.Thresholds) (evoltypes.GuardResult, bool) {
	m.mu.Lock()
	dep, ok := m.canaries[patchID]
	if !ok {
		m.mu.Unlock()
		return evoltypes.GuardResult{}, false
	}
	if dep.Metrics.Canary.Requests < minCanarySamples {
		m.mu.Unlock()
		return evoltypes.GuardResult{PatchID: patchID, MetricsAvailable: false}, false
	}
	snapshot := *dep
	m.mu.Unlock()

	shadowLike := evoltypes.ShadowEvalResult{
		PatchID: patchID,
		Status: evoltypes.ShadowOK,
		Before: evoltypes.ShadowMetrics{
			AvgReward: snapshot.Metrics.Baseline.AvgReward(), LatencyP95: snapshot.Metrics.Baseline.AvgLatency(),
		},
		After: evoltypes.ShadowMetrics{
			AvgReward: snapshot.Metrics.Canary.AvgReward(), ErrorRate: snapshot.Metrics.Canary.ErrorRate(),
			LatencyP95: snapshot.Metrics.Canary.AvgLatency(),
		},
		Deltas: evoltypes.ShadowDeltas{
			RewardDelta: snapshot.Metrics.Canary.AvgReward() - snapshot.Metrics.Baseline.AvgReward(),
			LatencyP95Delta: snapshot.Metrics.Canary.AvgLatency() - snapshot.Metrics.Baseline.AvgLatency(),
		},
	}

	result := guards.Violations(shadowLike, thresholds)
	if !result.Passed {
		m.Rollback(patchID, guards.Summary(result))
	}
	return result, true
}

// Rollback transitions status to rolled_back and records the reason.
func (m *Manager) Rollback(patchID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dep, ok := m.canaries[patchID]; ok {
		dep.Status = evoltypes.CanaryRolledBack
		dep.RollbackReason = reason
	}
}

// All returns a snapshot of every tracked canary, keyed by patch id.
func (m *Manager) All() map[string]evoltypes.CanaryDeployment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]evoltypes.CanaryDeployment, len(m.canaries))
	for id, dep := range m.canaries {
		out[id] = *dep
	}
	return out
}

// Cleanup removes non-active records older than maxAge.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, dep := range m.canaries {
		if dep.Status != evoltypes.CanaryActive && dep.StartTime.Before(cutoff) {
			delete(m.canaries, id)
			removed++
		}
	}
	return removed
}
