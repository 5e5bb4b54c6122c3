package formatter

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// Run applies each pass in order, piping the output of one as input to
// the next, and collects the advisory diagnostics they emit.
func Run(mod *cst.Module, cfg *config.Config, passes []Pass) (*cst.Module, []diag.Diagnostic) {
	var diags []diag.Diagnostic
	result := mod
	for _, p := range passes {
		var ds []diag.Diagnostic
		result, ds = p.Apply(result, cfg)
		diags = append(diags, ds...)
	}
	diag.Sort(diags)
	return result, diags
}
