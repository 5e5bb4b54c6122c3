package lint

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// RecordInSum flags record syntax inside multi-constructor types,
// where every selector is a partial function.
type RecordInSum struct{}

// Name returns the config key for this check.
func (*RecordInSum) Name() string { return "record-in-sum-type" }

// DefaultEnabled reports that the check runs by default.
func (*RecordInSum) DefaultEnabled() bool { return true }

// Apply returns the findings for the module.
func (*RecordInSum) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, d := range mod.Decls {
		dd, ok := d.(*cst.DataDecl)
		if !ok || len(dd.Constructors) < 2 {
			continue
		}
		for _, c := range dd.Constructors {
			if len(c.Fields) == 0 {
				continue
			}
			diags = append(diags, diag.New(diag.KindRecordInSumType, diag.SeverityAdvisory, c.Span,
				"record-in-sum-type",
				"record fields on %s make partial selectors; %s has other constructors", c.Name, dd.Name))
		}
	}
	return diags
}
