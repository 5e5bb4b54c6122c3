// Package lint hosts the read-only checks: naming and style findings
// that are reported, never rewritten. The naming pass surfaces a
// subset of them during formatting; the lint runner applies the whole
// registry on its own.
package lint

import (
	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
)

// Check is one lint check over a parsed module.
type Check interface {
	// Name returns the config key for this check.
	Name() string
	// DefaultEnabled reports whether the check runs when the config
	// does not list checks explicitly.
	DefaultEnabled() bool
	Apply(mod *cst.Module, cfg *config.Config) []diag.Diagnostic
}

var checks []Check

// Register adds a check to the registry.
func Register(c Check) { checks = append(checks, c) }

// Checks returns all registered checks in registration order.
func Checks() []Check { return checks }

// Run applies every check the config enables and returns the findings
// in source order.
func Run(mod *cst.Module, cfg *config.Config) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, c := range checks {
		if !cfg.CheckEnabled(c.Name(), c.DefaultEnabled()) {
			continue
		}
		diags = append(diags, c.Apply(mod, cfg)...)
	}
	diag.Sort(diags)
	return diags
}
