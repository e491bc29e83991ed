package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

const evolutionInstruction = "Objective: Evolve a new approach that improves on these strengths and avoids the weaknesses listed above. " +
	"Do not copy verbatim - use these as evolutionary seeds to inspire novel improvements."

// estimateTokens is the 4-chars-per-token heuristic specifies.
func estimateTokens(text string) int {
	n := len([]rune(text)) / 4
	if n < 1 && text != "" {
		return 1
	}
	return n
}

// Primer wraps a Store with an Embedder, implementing
// internal/evolution.MemoryPrimer so the Evolution Runner can fetch a
// memory primer without knowing about sqlite or embeddings.
type Primer struct {
	Store *Store
	Embedder embed.Embedder
}

// Primer satisfies internal/evolution.MemoryPrimer. It embeds query, runs
// Search, and assembles the primer text, returning "" with no error when
// there are no hits worth surfacing.
func (p *Primer) Primer(ctx context.Context, taskClass, query string, k int) (string, error) {
	if p.Store == nil || p.Embedder == nil || k <= 0 {
		return "", nil
	}
	queryEmbedding, err := p.Embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("memory: embed query: %w", err)
	}
	experiences, err := p.Store.Search(ctx, queryEmbedding, taskClass, k, p.Store.cfg.RewardFloor, time.Now())
	if err != nil {
		return "", err
	}
	text, _ := BuildPrimer(experiences, p.Store.cfg.PrimerTokensMax)
	return text, nil
}

// BuildPrimer assembles the evolution primer from experiences sorted by
// reward descending, stopping before the estimated token count would
// exceed tokensMax.
func BuildPrimer(experiences []evoltypes.Experience, tokensMax int) (string, int) {
	if len(experiences) == 0 {
		return "", 0
	}

	sorted := make([]evoltypes.Experience, len(experiences))
	copy(sorted, experiences)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Reward > sorted[j].Reward })

	parts := []string{"Evolutionary seeds from similar past cases (higher reward is better):"}

	for i, exp := range sorted {
		entry := fmt.Sprintf("\n%d. Reward:%.2f Δ:%.2f Conf:%.2f Op:%s\n Plan excerpt: %s\n Output excerpt: %s\n Known weaknesses: %s",
			i+1, exp.Reward, exp.ImprovementDelta, exp.ConfidenceScore, exp.OperatorUsed,
			excerpt(exp.Plan, 150), firstLineExcerpt(exp.OutputText, 200), inferWeaknesses(exp))

		candidate := append(append([]string{}, parts...), entry, evolutionInstruction)
		if estimateTokens(strings.Join(candidate, "\n")) > tokensMax {
			break
		}
		parts = append(parts, entry)
	}

	parts = append(parts, evolutionInstruction)
	final := strings.Join(parts, "\n")
	return final, estimateTokens(final)
}

func excerpt(text string, maxChars int) string {
	if text == "" {
		return "N/A"
	}
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars-3] + "..."
}

func firstLineExcerpt(text string, maxChars int) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "N/A"
	}
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return excerpt(line, maxChars)
	}
	return excerpt(cleaned, maxChars)
}

// inferWeaknesses derives plausible weaknesses from experience metadata.
func inferWeaknesses(exp evoltypes.Experience) string {
	var weaknesses []string

	if exp.ConfidenceScore < 0.7 {
		weaknesses = append(weaknesses, "low judge confidence")
	}
	if exp.Reward < 0.8 && exp.JudgeAI > 0 && exp.JudgeSemantic > 0 {
		if exp.JudgeAI < exp.JudgeSemantic {
			weaknesses = append(weaknesses, "AI judge scored lower than semantic")
		} else if exp.JudgeSemantic < 0.5 {
			weaknesses = append(weaknesses, "poor semantic match")
		}
	}
	if exp.LatencyMS > 10000 {
		weaknesses = append(weaknesses, "slow execution")
	}
	if exp.TokensOut > exp.TokensIn*3 {
		weaknesses = append(weaknesses, "overly verbose output")
	}
	switch exp.OperatorUsed {
	case "raise_temp", "lower_temp":
		if exp.Reward < 0.6 {
			weaknesses = append(weaknesses, "temperature adjustment ineffective")
		}
	case "add_fewshot":
		if exp.Reward < 0.7 {
			weaknesses = append(weaknesses, "examples may not be relevant")
		}
	}

	if len(weaknesses) == 0 {
		return "N/A"
	}
	return strings.Join(weaknesses, "; ")
}
