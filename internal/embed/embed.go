// Package embed provides the pluggable embedding capability used by the
// Judge Panel's semantic-similarity blend and Episodic Memory's retrieval
// scoring ("Embedding provider pluggability").
package embed

import (
	"context"
	"math"

	"github.com/evolvsys/evolv/pkg/registry"
)

// Embedder computes a unit-normalized vector of fixed dimension for a
// string. Implementations are keyed by a configuration string so swapping
// providers requires only changing the registry factory.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dim() int
}

// Registry is the global embedder registry.
var Registry = registry.New[Embedder]("embedders")

// Register adds an embedder factory to the global registry.
func Register(name string, factory func(registry.Config) (Embedder, error)) {
	Registry.Register(name, factory)
}

// Create instantiates an embedder by name.
func Create(name string, cfg registry.Config) (Embedder, error) {
	return Registry.Create(name, cfg)
}

// List returns all registered embedder names.
func List() []string {
	return Registry.List()
}

// Cosine returns the cosine similarity between two vectors of equal
// length, or 0 if either is the zero vector.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize scales v to unit length in place, returning it.
func Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// ZeroVector returns a zero vector of the given dim, the graceful-
// degradation fallback on embedding errors ("Embedding errors —
// fall back to a zero vector of correct dim").
func ZeroVector(dim int) []float64 {
	return make([]float64, dim)
}
