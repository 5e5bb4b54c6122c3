// Package hsfmt formats and lints Haskell source text.
//
// The package is a thin facade over the internal pipeline: parse to a
// concrete syntax tree, run the formatting passes, render. It is pure
// text to text; file discovery, configuration loading and write-back
// belong to callers.
package hsfmt

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/formatter"
	"github.com/donaldgifford/hsfmt/internal/lint"
	"github.com/donaldgifford/hsfmt/internal/parser"
	"github.com/donaldgifford/hsfmt/internal/rules"
)

// Result is the outcome of formatting one source text.
type Result struct {
	// Output is the formatted text. Empty when Format returned an
	// error; never truncated otherwise.
	Output string
	// Diagnostics are the findings collected along the way, in span
	// order. Formatting succeeds even when this is non-empty.
	Diagnostics []diag.Diagnostic
}

// Format formats src and returns the result together with any
// diagnostics. The error is non-nil only for the fatal class (invalid
// encoding, unterminated pragma or comment, unbalanced brackets); every
// recoverable finding is a diagnostic on the Result instead. A nil cfg
// means config.DefaultConfig.
func Format(src string, cfg *config.Config) (Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mod, diags, err := parser.Parse(src)
	if err != nil {
		return Result{Diagnostics: diags}, err
	}
	mod, passDiags := formatter.Run(mod, cfg, rules.Passes())
	out, writeDiags := formatter.Write(mod, cfg)

	all := make([]diag.Diagnostic, 0, len(diags)+len(passDiags)+len(writeDiags))
	all = append(all, diags...)
	all = append(all, passDiags...)
	all = append(all, writeDiags...)
	diag.Sort(all)
	return Result{Output: out, Diagnostics: all}, nil
}

// Lint runs the read-only checks over src without rewriting anything.
// Structural findings made while parsing (a missing export list and the
// like) are included. Advisories that only the formatting passes can
// see, such as import-list findings, surface through Format instead.
func Lint(src string, cfg *config.Config) ([]diag.Diagnostic, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mod, diags, err := parser.Parse(src)
	if err != nil {
		return diags, err
	}
	all := append(diags, lint.Run(mod, cfg)...)
	diag.Sort(all)
	return all, nil
}

// CheckIdempotent reports whether formatting src is stable: formatting
// the formatted output changes nothing and raises no mechanical
// diagnostics. A false return indicates a defect in the pass pipeline,
// not in the input.
func CheckIdempotent(src string, cfg *config.Config) (bool, error) {
	first, err := Format(src, cfg)
	if err != nil {
		return false, err
	}
	second, err := Format(first.Output, cfg)
	if err != nil {
		return false, err
	}
	if second.Output != first.Output {
		return false, nil
	}
	for _, d := range second.Diagnostics {
		if d.Kind.Mechanical() {
			return false, nil
		}
	}
	return true, nil
}
