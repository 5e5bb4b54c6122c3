package lint

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// PointFree flags bindings defined without arguments as a bare
// composition chain. The style is legal and sometimes clearer; the
// finding is advisory only.
type PointFree struct{}

// Name returns the config key for this check.
func (*PointFree) Name() string { return "point-free" }

// DefaultEnabled reports that the check runs by default.
func (*PointFree) DefaultEnabled() bool { return true }

// Apply returns the findings for the module.
func (*PointFree) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, d := range mod.Decls {
		fb, ok := d.(*cst.FuncBind)
		if !ok || fb.Name == "" || fb.IsOperator || fb.Body == nil {
			continue
		}
		if pointFreeBinding(fb.Body.Lines) {
			diags = append(diags, diag.New(diag.KindPointFreeStyle, diag.SeverityAdvisory, fb.NameSpan,
				"point-free", "%s is a bare composition chain; a named argument can read better", fb.Name))
		}
	}
	return diags
}

// pointFreeBinding recognizes the shape `name = f . g . h`: no
// parameters, a top-level composition, no lambda to bind one, and no
// bare literal that would mark an applied expression.
func pointFreeBinding(lines []*cst.Line) bool {
	if len(lines) == 0 {
		return false
	}
	head := lines[0].Tokens
	if len(head) < 3 || head[0].Kind != token.VarID || !head[1].Is(token.VarSym, "=") {
		return false
	}
	composed := false
	depth := 0
	scan := func(toks []token.Token) bool {
		for _, t := range toks {
			switch {
			case t.Is(token.VarSym, "\\"):
				return false
			case depth == 0 && t.Is(token.VarSym, "."):
				composed = true
			case depth == 0 && (t.Kind == token.IntLit || t.Kind == token.FloatLit ||
				t.Kind == token.StringLit || t.Kind == token.CharLit):
				return false
			case t.Layout:
				return false
			}
			depth += bracketDelta(t)
			if depth < 0 {
				depth = 0
			}
		}
		return true
	}
	if !scan(head[2:]) {
		return false
	}
	for _, ln := range lines[1:] {
		if !ln.Cont || !scan(ln.Tokens) {
			return false
		}
	}
	return composed
}

func bracketDelta(t token.Token) int {
	if t.Kind != token.Punct {
		return 0
	}
	switch t.Text {
	case "(", "[", "{":
		return 1
	case ")", "]", "}":
		return -1
	}
	return 0
}
