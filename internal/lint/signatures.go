package lint

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// MissingSignature flags top-level bindings that have no type
// signature anywhere in the module.
type MissingSignature struct{}

// Name returns the config key for this check.
func (*MissingSignature) Name() string { return "missing-signature" }

// DefaultEnabled reports that the check runs by default.
func (*MissingSignature) DefaultEnabled() bool { return true }

// Apply returns the findings for the module.
func (*MissingSignature) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	signed := map[string]bool{}
	for _, d := range mod.Decls {
		if sig, ok := d.(*cst.TypeSig); ok {
			for _, name := range sig.Names {
				signed[name] = true
			}
		}
	}
	var diags []diag.Diagnostic
	reported := map[string]bool{}
	for _, d := range mod.Decls {
		fb, ok := d.(*cst.FuncBind)
		if !ok || fb.Name == "" || signed[fb.Name] || reported[fb.Name] {
			continue
		}
		reported[fb.Name] = true
		name := fb.Name
		if fb.IsOperator {
			name = "(" + name + ")"
		}
		diags = append(diags, diag.New(diag.KindMissingSignature, diag.SeverityWarning, fb.NameSpan,
			"missing-signature", "top-level %s has no type signature", name))
	}
	return diags
}
