// Package metrics exports Evolution Runner and Self-Modification Engine
// counters in Prometheus text format, using hand-rolled atomic counters
// and a text/plain handler rather than the prometheus client library.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// Metrics tracks Evolution Runner and Self-Modification Engine activity.
type Metrics struct {
	RunsTotal int64
	VariantsTotal int64
	VariantsPromoted int64
	PatchesProposed int64
	PatchesRejected int64
	PatchesCommitted int64
	ShadowEvaluations int64
}

func (m *Metrics) IncRun() { atomic.AddInt64(&m.RunsTotal, 1) }
func (m *Metrics) IncVariant() { atomic.AddInt64(&m.VariantsTotal, 1) }
func (m *Metrics) IncPromoted() { atomic.AddInt64(&m.VariantsPromoted, 1) }
func (m *Metrics) IncPatchProposed() { atomic.AddInt64(&m.PatchesProposed, 1) }
func (m *Metrics) IncPatchRejected() { atomic.AddInt64(&m.PatchesRejected, 1) }
func (m *Metrics) IncPatchCommitted() { atomic.AddInt64(&m.PatchesCommitted, 1) }
func (m *Metrics) IncShadowEvaluation() { atomic.AddInt64(&m.ShadowEvaluations, 1) }

// PrometheusExporter renders a Metrics snapshot in Prometheus text format.
type PrometheusExporter struct {
	metrics *Metrics
}

// NewPrometheusExporter creates a new Prometheus exporter for m.
func NewPrometheusExporter(m *Metrics) *PrometheusExporter {
	return &PrometheusExporter{metrics: m}
}

// Export returns metrics in Prometheus text format.
func (e *PrometheusExporter) Export() string {
	var b strings.Builder

	runsTotal := atomic.LoadInt64(&e.metrics.RunsTotal)
	variantsTotal := atomic.LoadInt64(&e.metrics.VariantsTotal)
	variantsPromoted := atomic.LoadInt64(&e.metrics.VariantsPromoted)
	patchesProposed := atomic.LoadInt64(&e.metrics.PatchesProposed)
	patchesRejected := atomic.LoadInt64(&e.metrics.PatchesRejected)
	patchesCommitted := atomic.LoadInt64(&e.metrics.PatchesCommitted)
	shadowEvaluations := atomic.LoadInt64(&e.metrics.ShadowEvaluations)

	fmt.Fprintf(&b, "evolv_runs_total %d\n", runsTotal)
	fmt.Fprintf(&b, "evolv_variants_total %d\n", variantsTotal)
	fmt.Fprintf(&b, "evolv_variants_promoted_total %d\n", variantsPromoted)

	var promotionRate float64
	if variantsTotal > 0 {
		promotionRate = float64(variantsPromoted) / float64(variantsTotal)
	}
	fmt.Fprintf(&b, "evolv_variants_promotion_rate %s\n", formatFloat(promotionRate))

	fmt.Fprintf(&b, "evolv_patches_total{status=\"proposed\"} %d\n", patchesProposed)
	fmt.Fprintf(&b, "evolv_patches_total{status=\"rejected\"} %d\n", patchesRejected)
	fmt.Fprintf(&b, "evolv_patches_total{status=\"committed\"} %d\n", patchesCommitted)
	fmt.Fprintf(&b, "evolv_shadow_evaluations_total %d\n", shadowEvaluations)

	return b.String()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, e.Export())
	})
}

// formatFloat formats a float64 for Prometheus, trimming trailing zeros.
func formatFloat(f float64) string {
	if f == 0.0 {
		return "0"
	}
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
