package evolution

import "github.com/evolvsys/evolv/pkg/recipe"

// Flags enumerates per-run options, mirroring contract
// exactly: `run(task_class, task, assertions, n, flags) -> result`.
type Flags struct {
	MemoryK int
	RAGK int
	Operators []string // nil means "derive from FrameworkMask"
	BanditAlgo string // "ucb" | "epsilon_greedy"
	FrameworkMask recipe.OperatorGroup
	TestCmd string
	TestWeight float64
	JudgeMode string // "off" | "pairwise_groq"
	ForceEngine string // "" uses the runner's configured default, else must be "ollama"
	Seed *int64

	// ShadowMode disables realtime publication for this run (:
	// "no user-visible side effects"). Used by internal/sme/shadow to run
	// baseline/patched rounds through the Runner without leaking events to
	// live subscribers.
	ShadowMode bool
}

// resolvedMask returns FrameworkMask, or the default group mask
// (SEAL|SAMPLING|WEB) when FrameworkMask is unset.
func (f Flags) resolvedMask() recipe.OperatorGroup {
	if f.FrameworkMask == 0 {
		return recipe.DefaultGroups
	}
	return f.FrameworkMask
}
