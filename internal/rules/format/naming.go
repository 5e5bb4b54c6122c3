package format

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/lint"
)

// Naming surfaces the naming findings during formatting: case policy
// violations, all-caps abbreviations, operator definitions. The tree
// is never changed; renaming is the author's call.
type Naming struct{}

// Name returns the config key for this pass.
func (*Naming) Name() string { return "naming" }

// Apply reports naming findings. The module passes through untouched.
func (*Naming) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	var diags []diag.Diagnostic
	diags = append(diags, lint.CaseFindings(mod, cfg)...)
	diags = append(diags, lint.AbbreviationFindings(mod)...)
	diags = append(diags, lint.OperatorFindings(mod)...)
	return mod, diags
}
