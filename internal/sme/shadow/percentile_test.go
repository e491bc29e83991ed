package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestP95FallsBackToMaxBelowThreshold(t *testing.T) {
	samples := []float64{10, 50, 20}
	assert.InDelta(t, 50, p95(samples), 1e-9)
}

func TestP95ComputesPercentileAboveThreshold(t *testing.T) {
	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = float64(i + 1) // 1..20
	}
	assert.InDelta(t, 19, p95(samples), 1e-9)
}

func TestP95EmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), p95(nil))
}

func TestMeanAveragesSamples(t *testing.T) {
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 1e-9)
}

func TestMeanEmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), mean(nil))
}
