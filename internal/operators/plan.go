package operators

import (
	"strings"

	"github.com/evolvsys/evolv/pkg/recipe"
)

// ContextBundle holds the task plus whatever optional context blocks were
// fetched according to a Recipe's Flags, consumed by Assemble.
type ContextBundle struct {
	Task string
	RAGBlock string
	MemoryPrimer string
	WebBlock string
}

// Assemble concatenates the context bundle into a Plan :
// optional few-shot -> optional RAG -> optional memory -> optional web ->
// task -> "Constraints:" + nudge. The memory primer is prepended to
// SystemText when retrieval yielded experiences, independent of the
// recipe's other flags.
func Assemble(r recipe.Recipe, ctx ContextBundle) recipe.Plan {
	var b strings.Builder

	if r.FewshotExample != "" {
		b.WriteString(r.FewshotExample)
		b.WriteString("\n\n")
	}
	if r.Flags.UseRAG && ctx.RAGBlock != "" {
		b.WriteString(ctx.RAGBlock)
		b.WriteString("\n\n")
	}
	if r.Flags.UseMemory && ctx.MemoryPrimer != "" {
		b.WriteString(ctx.MemoryPrimer)
		b.WriteString("\n\n")
	}
	if r.Flags.UseWeb && ctx.WebBlock != "" {
		b.WriteString(ctx.WebBlock)
		b.WriteString("\n\n")
	}
	b.WriteString(ctx.Task)
	b.WriteString("\n\nConstraints: ")
	b.WriteString(r.InstructionNudge)

	systemText := r.SystemVoice
	if ctx.MemoryPrimer != "" {
		systemText = ctx.MemoryPrimer + "\n\n" + systemText
	}

	return recipe.Plan{
		PromptText: b.String(),
		SystemText: systemText,
		SamplingOptions: r.Params,
	}
}
