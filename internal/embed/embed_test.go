package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHashDeterministic(t *testing.T) {
	e, err := NewLocalHash(LocalHashConfig{Dim: LocalHashDim})
	require.NoError(t, err)

	v1, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, LocalHashDim)
}

func TestLocalHashDistinctTextsDiffer(t *testing.T) {
	e, _ := NewLocalHash(LocalHashConfig{Dim: LocalHashDim})
	v1, _ := e.Embed(context.Background(), "alpha beta gamma")
	v2, _ := e.Embed(context.Background(), "completely different text here")
	assert.NotEqual(t, v1, v2)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	e, _ := NewLocalHash(LocalHashConfig{Dim: LocalHashDim})
	v, _ := e.Embed(context.Background(), "same text")
	sim := Cosine(v, v)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineMismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestZeroVectorHasCorrectDim(t *testing.T) {
	assert.Len(t, ZeroVector(384), 384)
}

func TestRegistryListIncludesLocalHash(t *testing.T) {
	assert.Contains(t, List(), "local-hash")
}
