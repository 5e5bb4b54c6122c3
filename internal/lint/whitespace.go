package lint

import (
	"strings"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// TrailingWhitespace is the lint surface of what the formatter fixes
// mechanically: spaces or tabs before a line break, including inside
// comment text.
type TrailingWhitespace struct{}

// Name returns the config key for this check.
func (*TrailingWhitespace) Name() string { return "trailing-whitespace" }

// DefaultEnabled reports that the check runs by default.
func (*TrailingWhitespace) DefaultEnabled() bool { return true }

// Apply returns the findings for the module.
func (*TrailingWhitespace) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	var diags []diag.Diagnostic
	eachTrivia(mod, func(tr token.Trivia) {
		for _, p := range tr {
			if dirty(p) {
				diags = append(diags, diag.New(diag.KindTrailingWhitespace, diag.SeverityWarning, p.Span,
					"trailing-whitespace", "trailing whitespace"))
			}
		}
	})
	return diags
}

func dirty(p token.TriviaPiece) bool {
	switch p.Kind {
	case token.TriviaWhitespace:
		for i := 0; i+1 < len(p.Text); i++ {
			if (p.Text[i] == ' ' || p.Text[i] == '\t') && p.Text[i+1] == '\n' {
				return true
			}
		}
		return false
	case token.TriviaLineComment:
		return strings.TrimRight(p.Text, " \t") != p.Text
	}
	return false
}

// eachTrivia visits every trivia run attached anywhere in the module,
// in source order.
func eachTrivia(mod *cst.Module, visit func(token.Trivia)) {
	piece := func(p *token.TriviaPiece) {
		if p != nil {
			visit(token.Trivia{*p})
		}
	}
	items := func(items []*cst.ListItem, closing token.Trivia) {
		for _, it := range items {
			visit(it.Leading)
			piece(it.Trailing)
		}
		visit(closing)
	}
	block := func(b *cst.Block) {
		if b == nil {
			return
		}
		for _, ln := range b.Lines {
			for _, t := range ln.Tokens {
				visit(t.Leading)
			}
		}
	}

	for _, pr := range mod.Pragmas {
		visit(pr.Leading)
		piece(pr.Trailing)
	}
	if mod.Head != nil {
		visit(mod.Head.Leading)
		piece(mod.Head.Trailing)
		if mod.Head.Exports != nil {
			items(mod.Head.Exports.Items, mod.Head.Exports.Closing)
		}
	}
	for _, g := range mod.Imports {
		for _, d := range g.Decls {
			visit(d.Leading)
			piece(d.Trailing)
			items(d.Items, d.Closing)
		}
	}
	for _, d := range mod.Decls {
		visit(d.Leading())
		piece(d.Trailing())
		switch d := d.(type) {
		case *cst.TypeSig:
			for _, seg := range d.Segments {
				visit(seg.Leading)
				piece(seg.Trailing)
			}
		case *cst.DataDecl:
			for _, c := range d.Constructors {
				visit(c.Leading)
				piece(c.Trailing)
				visit(c.Closing)
				for _, f := range c.Fields {
					visit(f.Leading)
					piece(f.Trailing)
				}
			}
			for _, dc := range d.Deriving {
				visit(dc.Leading)
				piece(dc.Trailing)
			}
		case *cst.FuncBind:
			block(d.Body)
		case *cst.BlockDecl:
			block(d.Body)
		case *cst.RawDecl:
			block(d.Body)
		}
	}
	visit(mod.Trailing)
}
