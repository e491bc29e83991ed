// Package operators implements the Operator Library: named pure functions
// that mutate a Recipe, each satisfying Operator.Apply(Recipe) -> Recipe.
package operators

import (
	"github.com/evolvsys/evolv/pkg/recipe"
	"github.com/evolvsys/evolv/pkg/registry"
)

// Registry is the global operator registry: a package-level var wrapping
// the generic registry.Registry's Register/List/Get/Create surface.
var Registry = registry.New[recipe.Operator]("operators")

// Register adds an operator factory to the global registry. Called from
// init in each operator's defining file.
func Register(name string, factory func(registry.Config) (recipe.Operator, error)) {
	Registry.Register(name, factory)
}

// List returns all registered operator names.
func List() []string {
	return Registry.List()
}

// Create instantiates an operator by name.
func Create(name string, cfg registry.Config) (recipe.Operator, error) {
	return Registry.Create(name, cfg)
}

// Names is the recognized fixed operator set .
var Names = []string{
	"change_system", "change_nudge", "raise_temp", "lower_temp",
	"raise_top_k", "lower_top_k", "inject_memory", "inject_rag",
	"toggle_web", "add_fewshot",
}

// ForGroups returns the subset of Names whose registered Operator.Group
// intersects mask, in the deterministic order of Names.
func ForGroups(mask recipe.OperatorGroup) []string {
	var out []string
	for _, name := range Names {
		op, err := Create(name, nil)
		if err != nil {
			continue
		}
		if op.Group&mask != 0 {
			out = append(out, name)
		}
	}
	return out
}
