package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/evolvsys/evolv/pkg/registry"
)

func init() {
	Register("local-hash", registry.FromMap(NewLocalHash, parseLocalHashConfig))
}

// LocalHashDim is the default dimensionality, chosen to match the common
// small-model embedding size used across the judge/memory code paths.
const LocalHashDim = 384

// LocalHashConfig configures the deterministic local embedder.
type LocalHashConfig struct {
	Dim int
}

func parseLocalHashConfig(cfg registry.Config) (LocalHashConfig, error) {
	c := LocalHashConfig{Dim: LocalHashDim}
	if d, ok := cfg["dim"].(int); ok && d > 0 {
		c.Dim = d
	}
	return c, nil
}

// LocalHash is a deterministic, network-free pseudo-embedding: it hashes
// overlapping token shingles into a fixed-width vector. It is not a
// semantic embedding, but it is stable, cheap, and sufficient for tests
// and for a no-network-available deployment ("pluggable embedding
// provider, defaulting to a local implementation that requires no
// outbound calls").
type LocalHash struct {
	dim int
}

// NewLocalHash constructs the deterministic local embedder.
func NewLocalHash(cfg LocalHashConfig) (Embedder, error) {
	return &LocalHash{dim: cfg.Dim}, nil
}

func (h *LocalHash) Dim() int { return h.dim }

func (h *LocalHash) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	if text == "" {
		return vec, nil
	}
	shingle := shingles(text, 3)
	for _, s := range shingle {
		sum := sha256.Sum256([]byte(s))
		for i := 0; i < h.dim; i += 8 {
			chunk := sum[(i/8)%len(sum):]
			if len(chunk) < 8 {
				chunk = sum[:8]
			}
			bits := binary.BigEndian.Uint64(pad8(chunk))
			sign := 1.0
			if bits&1 == 1 {
				sign = -1.0
			}
			vec[i] += sign * float64(bits%1000) / 1000.0
		}
	}
	return Normalize(vec), nil
}

func pad8(b []byte) []byte {
	if len(b) >= 8 {
		return b[:8]
	}
	out := make([]byte, 8)
	copy(out, b)
	return out
}

func shingles(text string, n int) []string {
	runes := []rune(text)
	if len(runes) <= n {
		return []string{text}
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}
