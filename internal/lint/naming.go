package lint

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// The built-in case policies. Config may override each with its own
// pattern; an override that fails to compile falls back here (the
// config validator reports it separately).
var (
	lowerCamelRE = regexp.MustCompile(`^_*[a-z][a-zA-Z0-9']*$`)
	upperCamelRE = regexp.MustCompile(`^[A-Z][a-zA-Z0-9']*$`)
)

// NamingCase flags identifiers whose case does not match the policy
// for their category. Shared with the formatter's naming pass.
type NamingCase struct{}

// Name returns the config key for this check.
func (*NamingCase) Name() string { return "naming-case" }

// DefaultEnabled reports that the check runs by default.
func (*NamingCase) DefaultEnabled() bool { return true }

// Apply returns the case findings for the module.
func (*NamingCase) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	out := CaseFindings(mod, cfg)
	return append(out, OperatorFindings(mod)...)
}

// policy is one identifier category's naming rule.
type policy struct {
	re   *regexp.Regexp
	want string
}

func newPolicy(override string, def *regexp.Regexp, want string) policy {
	p := policy{re: def, want: want}
	if override == "" {
		return p
	}
	re, err := regexp.Compile(override)
	if err != nil {
		return p
	}
	p.re = re
	p.want = fmt.Sprintf("match %s", override)
	return p
}

// CaseFindings reports every identifier declared in the module whose
// spelling violates its category's case policy.
func CaseFindings(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	n := cfg.Lint.Naming
	funcs := newPolicy(n.Function, lowerCamelRE, "lowerCamelCase")
	types := newPolicy(n.Type, upperCamelRE, "UpperCamelCase")
	cons := newPolicy(n.Constructor, upperCamelRE, "UpperCamelCase")
	mods := newPolicy(n.Module, upperCamelRE, "UpperCamelCase")

	var diags []diag.Diagnostic
	seen := map[string]bool{}
	flag := func(span token.Span, category, name string, p policy) {
		if p.re.MatchString(name) || seen[category+" "+name] {
			return
		}
		seen[category+" "+name] = true
		diags = append(diags, diag.New(diag.KindNamingViolation, diag.SeverityAdvisory, span,
			"naming-case", "%s %s should be %s", category, name, p.want))
	}

	if mod.Head != nil && mod.Head.Name != "" {
		for _, part := range strings.Split(mod.Head.Name, ".") {
			flag(mod.Head.NameSpan, "module component", part, mods)
		}
	}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *cst.FuncBind:
			if d.Name == "" || d.IsOperator {
				continue
			}
			flag(d.NameSpan, "function", d.Name, funcs)
		case *cst.TypeSig:
			if d.IsOperator {
				continue
			}
			for _, name := range d.Names {
				flag(d.NameSpan, "function", name, funcs)
			}
		case *cst.DataDecl:
			flag(d.NameSpan, "type", d.Name, types)
			for _, c := range d.Constructors {
				if c.Name != "" {
					flag(c.Span, "constructor", c.Name, cons)
				}
				for _, f := range c.Fields {
					for _, name := range f.Names {
						flag(f.Span, "field", name, funcs)
					}
				}
			}
		case *cst.BlockDecl:
			if d.Keyword == "class" && d.Name != "" {
				flag(d.NameSpan, "class", d.Name, types)
			}
		}
	}
	return diags
}

// OperatorFindings flags custom operator definitions. Operators are
// legal; each one is surfaced once for review.
func OperatorFindings(mod *cst.Module) []diag.Diagnostic {
	var diags []diag.Diagnostic
	seen := map[string]bool{}
	for _, d := range mod.Decls {
		fb, ok := d.(*cst.FuncBind)
		if !ok || !fb.IsOperator || seen[fb.Name] {
			continue
		}
		seen[fb.Name] = true
		diags = append(diags, diag.New(diag.KindOperatorDefinition, diag.SeverityAdvisory, fb.NameSpan,
			"naming-case", "operator (%s) defined here; a named function is easier to search for", fb.Name))
	}
	return diags
}

// AbbreviationCase flags all-caps acronym runs inside longer names.
type AbbreviationCase struct{}

// Name returns the config key for this check.
func (*AbbreviationCase) Name() string { return "abbreviation-case" }

// DefaultEnabled reports that the check runs by default.
func (*AbbreviationCase) DefaultEnabled() bool { return true }

// Apply returns the abbreviation findings for the module.
func (*AbbreviationCase) Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	return AbbreviationFindings(mod)
}

// AbbreviationFindings reports declared names that embed an all-caps
// run, with the mixed-case spelling suggested instead.
func AbbreviationFindings(mod *cst.Module) []diag.Diagnostic {
	var diags []diag.Diagnostic
	seen := map[string]bool{}
	flag := func(span token.Span, name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if fixed, changed := demoteAcronyms(name); changed {
			diags = append(diags, diag.New(diag.KindNamingViolation, diag.SeverityAdvisory, span,
				"abbreviation-case", "%s spells an abbreviation in all caps; prefer %s", name, fixed))
		}
	}
	for _, d := range mod.Decls {
		switch d := d.(type) {
		case *cst.FuncBind:
			if d.Name != "" && !d.IsOperator {
				flag(d.NameSpan, d.Name)
			}
		case *cst.TypeSig:
			if d.IsOperator {
				continue
			}
			for _, name := range d.Names {
				flag(d.NameSpan, name)
			}
		case *cst.DataDecl:
			flag(d.NameSpan, d.Name)
			for _, c := range d.Constructors {
				if c.Name != "" {
					flag(c.Span, c.Name)
				}
				for _, f := range c.Fields {
					for _, name := range f.Names {
						flag(f.Span, name)
					}
				}
			}
		}
	}
	return diags
}

// demoteAcronyms lowers every all-caps run of two or more letters,
// keeping the letter that starts the following word. parseURL becomes
// parseUrl, HTTPServer becomes HttpServer.
func demoteAcronyms(name string) (string, bool) {
	rs := []rune(name)
	out := make([]rune, 0, len(rs))
	changed := false
	for i := 0; i < len(rs); {
		if !unicode.IsUpper(rs[i]) {
			out = append(out, rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && unicode.IsUpper(rs[j]) {
			j++
		}
		run := j - i
		if j < len(rs) && unicode.IsLower(rs[j]) && run > 1 {
			run--
		}
		if run >= 2 {
			changed = true
			out = append(out, rs[i])
			for k := i + 1; k < i+run; k++ {
				out = append(out, unicode.ToLower(rs[k]))
			}
		} else {
			out = append(out, rs[i:i+run]...)
		}
		i += run
	}
	return string(out), changed
}
