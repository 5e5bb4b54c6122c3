package format

import (
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// Deriving normalizes deriving clauses: a declaration with more than
// one clause puts each on its own line, strategy keywords padded so
// the class lists start in one column. Bare classes pick up
// parentheses in rendering.
//
// It also flags duplicate or empty derives and lazy record fields,
// both advisory; neither is rewritten.
type Deriving struct{}

// Name returns the config key for this pass.
func (*Deriving) Name() string { return "deriving" }

// Apply shapes deriving clauses and collects the advisories.
func (*Deriving) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	out := mod.Clone()
	var diags []diag.Diagnostic
	for _, d := range out.Decls {
		dd, ok := d.(*cst.DataDecl)
		if !ok {
			continue
		}
		if len(dd.Deriving) > 1 {
			dd.MultiLine = true
			dd.OneLine = false
			width := 0
			for _, dc := range dd.Deriving {
				if w := utf8.RuneCountInString(dc.Strategy); w > width {
					width = w
				}
			}
			dd.StrategyWidth = width
		}
		diags = append(diags, lintDeriving(dd)...)
	}
	return out, diags
}

func lintDeriving(d *cst.DataDecl) []diag.Diagnostic {
	var diags []diag.Diagnostic
	seen := map[string]bool{}
	for _, dc := range d.Deriving {
		if len(dc.Classes) == 0 {
			diags = append(diags, diag.New(diag.KindUnnecessaryDerive, diag.SeverityAdvisory, dc.Span,
				"deriving", "empty deriving clause on %s", d.Name))
			continue
		}
		for _, c := range dc.Classes {
			if seen[c] {
				diags = append(diags, diag.New(diag.KindUnnecessaryDerive, diag.SeverityAdvisory, dc.Span,
					"deriving", "%s derives %s more than once", d.Name, c))
				continue
			}
			seen[c] = true
		}
	}
	// Strictness is meaningless on a newtype field.
	if d.Keyword != "data" {
		return diags
	}
	for _, c := range d.Constructors {
		for _, f := range c.Fields {
			if f.Strict {
				continue
			}
			diags = append(diags, diag.New(diag.KindMissingStrictness, diag.SeverityAdvisory, f.Span,
				"deriving", "field %s of %s has no strictness annotation", strings.Join(f.Names, ", "), d.Name))
		}
	}
	return diags
}
