// Package rules manages registration of the formatting passes.
package rules

import (
	"github.com/donaldgifford/hsfmt/internal/formatter"
)

var passes []formatter.Pass

// Register adds a pass to the registry. Passes are applied in the
// order they are registered.
func Register(p formatter.Pass) {
	passes = append(passes, p)
}

// Passes returns all registered passes in execution order.
func Passes() []formatter.Pass {
	return passes
}
