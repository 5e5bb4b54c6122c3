package format

import (
	"sort"
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// Pragmas normalizes the pragma header: OPTIONS pragmas first in their
// source order, then LANGUAGE pragmas sorted by extension with their
// closing delimiters in one column. Declaration pragmas (INLINE,
// SPECIALIZE and friends) are pinned directly after the declaration
// that defines the binder they name.
type Pragmas struct{}

// Name returns the config key for this pass.
func (*Pragmas) Name() string { return "pragmas" }

// Apply reorders file pragmas and pins declaration pragmas.
func (*Pragmas) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	out := mod.Clone()
	filePragmaBlocks(out, cfg)
	pinDeclPragmas(out)
	return out, nil
}

func filePragmaBlocks(out *cst.Module, cfg *config.Config) {
	if len(out.Pragmas) == 0 {
		return
	}
	var opts, langs []*cst.Pragma
	for _, pr := range out.Pragmas {
		if pr.Raw == "" && pr.Tool == "LANGUAGE" {
			langs = append(langs, pr)
		} else {
			opts = append(opts, pr)
		}
	}
	sort.SliceStable(langs, func(i, j int) bool { return langs[i].Body < langs[j].Body })

	width := 0
	if cfg.Format.Align.Pragmas {
		for _, pr := range langs {
			if w := utf8.RuneCountInString("{-# " + pr.Tool + " " + pr.Body); w > width {
				width = w
			}
		}
	}
	for _, pr := range langs {
		pr.PadTo = width
	}
	for _, pr := range opts {
		pr.PadTo = 0
	}

	merged := append(append([]*cst.Pragma(nil), opts...), langs...)
	for i, pr := range merged {
		blanks := 0
		switch {
		case i == 0:
			blanks = -1
		case i == len(opts) && len(opts) > 0:
			// The two blocks stay blank-separated.
			blanks = 1
		}
		pr.Leading = normalizeLeading(pr.Leading, blanks)
	}
	out.Pragmas = merged
}

// pinDeclPragmas moves each named declaration pragma directly under
// the declaration defining its binder. Pragmas whose binder is not
// declared in this module stay where they are.
func pinDeclPragmas(out *cst.Module) {
	decls := out.Decls
	pinned := map[int][]*cst.PragmaDecl{}
	moving := map[*cst.PragmaDecl]bool{}
	for i, d := range decls {
		pd, ok := d.(*cst.PragmaDecl)
		if !ok || pd.Target == "" {
			continue
		}
		t := definingIndex(decls, pd.Target)
		if t < 0 {
			continue
		}
		if inPlace(decls, i, t, pd.Target) {
			pd.SetLeading(normalizeLeading(pd.Leading(), 0))
			continue
		}
		pinned[t] = append(pinned[t], pd)
		moving[pd] = true
	}
	if len(moving) == 0 {
		return
	}
	out.Decls = make([]cst.Decl, 0, len(decls))
	for i, d := range decls {
		if pd, ok := d.(*cst.PragmaDecl); ok && moving[pd] {
			continue
		}
		out.Decls = append(out.Decls, d)
		for _, pd := range pinned[i] {
			pd.SetLeading(normalizeLeading(pd.Leading(), 0))
			out.Decls = append(out.Decls, pd)
		}
	}
}

// definingIndex locates the declaration a pragma should follow: the
// binder's equations, else its signature, else the type of that name.
func definingIndex(decls []cst.Decl, name string) int {
	bind, sig, data := -1, -1, -1
	for i, d := range decls {
		switch d := d.(type) {
		case *cst.FuncBind:
			if d.Name == name {
				bind = i
			}
		case *cst.TypeSig:
			for _, n := range d.Names {
				if n == name {
					sig = i
				}
			}
		case *cst.DataDecl:
			if d.Name == name {
				data = i
			}
		}
	}
	if bind >= 0 {
		return bind
	}
	if sig >= 0 {
		return sig
	}
	return data
}

// inPlace reports that the pragma at index i already sits in the
// pinned run after its target: only sibling pragmas for the same
// binder separate them.
func inPlace(decls []cst.Decl, i, t int, name string) bool {
	if i <= t {
		return false
	}
	for j := t + 1; j < i; j++ {
		pd, ok := decls[j].(*cst.PragmaDecl)
		if !ok || pd.Target != name {
			return false
		}
	}
	return true
}
