package format

import (
	"sort"
	"strings"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Imports regroups and sorts the import block: external packages and
// local modules split into blank-separated groups in the configured
// order, each group sorted by module name. Comments above an import
// travel with it. The pass never touches the names inside an import
// list.
//
// It also reports unqualified imports without an explicit list and
// wide open imports that would read better qualified.
type Imports struct{}

// Name returns the config key for this pass.
func (*Imports) Name() string { return "imports" }

// Apply rebuilds the module's import groups.
func (*Imports) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	out := mod.Clone()
	var decls []*cst.ImportDecl
	for _, g := range out.Imports {
		decls = append(decls, g.Decls...)
	}
	if len(decls) == 0 {
		return out, nil
	}

	byGroup := map[string][]*cst.ImportDecl{}
	for _, d := range decls {
		byGroup[groupOf(d, cfg)] = append(byGroup[groupOf(d, cfg)], d)
	}
	for _, ds := range byGroup {
		sort.SliceStable(ds, func(i, j int) bool {
			a, b := sortKey(ds[i]), sortKey(ds[j])
			if a != b {
				return a < b
			}
			if ds[i].Alias != ds[j].Alias {
				return ds[i].Alias < ds[j].Alias
			}
			return !ds[i].Qualified && ds[j].Qualified
		})
	}

	order := append([]string(nil), cfg.Format.ImportGroupOrder...)
	for _, name := range []string{config.GroupExternal, config.GroupLocal} {
		if !contains(order, name) {
			order = append(order, name)
		}
	}

	out.Imports = nil
	first := true
	for _, name := range order {
		ds := byGroup[name]
		if len(ds) == 0 {
			continue
		}
		for i, d := range ds {
			blanks := 0
			if i == 0 {
				blanks = 1
				if first && out.Head == nil && len(out.Pragmas) == 0 {
					blanks = -1
				}
			}
			d.Leading = normalizeLeading(d.Leading, blanks)
		}
		out.Imports = append(out.Imports, &cst.ImportGroup{Decls: ds})
		first = false
	}

	return out, lintImports(decls, out, cfg)
}

// groupOf classifies an import as local when its module name falls
// under one of the configured local prefixes.
func groupOf(d *cst.ImportDecl, cfg *config.Config) string {
	name := sortKey(d)
	for _, p := range cfg.Format.LocalPrefixes {
		if name == p || strings.HasPrefix(name, p+".") {
			return config.GroupLocal
		}
	}
	return config.GroupExternal
}

// sortKey is the module name, recovered from the raw text when the
// declaration did not parse into fields.
func sortKey(d *cst.ImportDecl) string {
	if d.Module != "" {
		return d.Module
	}
	fields := strings.Fields(d.Raw)
	for _, f := range fields[1:] {
		if f != "qualified" {
			return f
		}
	}
	return d.Raw
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// normalizeLeading rewrites the blank lines above a declaration while
// keeping its comments. blanks is the count of empty lines wanted
// above the first comment, or the declaration itself when it has
// none; -1 means the declaration opens the file.
func normalizeLeading(tr token.Trivia, blanks int) token.Trivia {
	rest := tr.Clone()
	for len(rest) > 0 && !rest[0].IsComment() {
		rest = rest[1:]
	}
	var out token.Trivia
	if blanks >= 0 {
		out = append(out, token.TriviaPiece{
			Kind: token.TriviaWhitespace,
			Text: strings.Repeat("\n", blanks+1),
		})
	}
	return append(out, rest...)
}

func lintImports(decls []*cst.ImportDecl, mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	// A module with no declarations of its own exists to re-export;
	// open imports are the point there.
	if len(mod.Decls) == 0 {
		return nil
	}
	var diags []diag.Diagnostic
	for _, d := range decls {
		if d.Raw != "" || d.Qualified {
			continue
		}
		if !d.HasList {
			diags = append(diags, diag.New(diag.KindMissingImportList, diag.SeverityWarning, d.Span,
				"imports", "import of %s has no explicit import list", d.Module))
			continue
		}
		if !d.Hiding && len(d.Items) >= cfg.Format.QualifyThreshold {
			diags = append(diags, diag.New(diag.KindQualifyCandidate, diag.SeverityAdvisory, d.Span,
				"imports", "import of %s lists %d names; a qualified import would read better", d.Module, len(d.Items)))
		}
	}
	return diags
}
