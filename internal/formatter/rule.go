package formatter

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// Pass transforms the module tree. Passes are applied in registered order.
type Pass interface {
	// Name returns the config key for this pass (e.g., "imports").
	Name() string

	// Apply receives the full tree and config and returns a new tree.
	// Passes must not mutate the input; clone nodes where changes are
	// needed. Advisory findings that do not change the text come back
	// as diagnostics.
	Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic)
}
