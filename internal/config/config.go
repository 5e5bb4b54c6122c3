// Package config defines the configuration types and defaults for hsfmt.
package config

import (
	"fmt"
	"regexp"
)

// Import group classifications recognized by the ordering pass.
const (
	GroupExternal = "external"
	GroupLocal    = "local"
)

// Config is the top-level configuration.
type Config struct {
	Format FormatConfig `yaml:"format"`
	Lint   LintConfig   `yaml:"lint"`
}

// FormatConfig holds all formatter settings.
type FormatConfig struct {
	IndentWidth      int         `yaml:"indent_width"`
	MaxLineLength    int         `yaml:"max_line_length"`
	ImportGroupOrder []string    `yaml:"import_group_order"`
	LocalPrefixes    []string    `yaml:"local_prefixes"`
	QualifyThreshold int         `yaml:"qualify_threshold"`
	Align            AlignConfig `yaml:"align"`
}

// AlignConfig toggles the alignment groups the align pass may create.
// A disabled group renders in plain form; it never blocks formatting.
type AlignConfig struct {
	Exports        bool `yaml:"exports"`
	RecordFields   bool `yaml:"record_fields"`
	Constructors   bool `yaml:"constructors"`
	TypeSignatures bool `yaml:"type_signatures"`
	OperatorChains bool `yaml:"operator_chains"`
	DoBindings     bool `yaml:"do_bindings"`
	Pragmas        bool `yaml:"pragmas"`
}

// LintConfig holds linter settings.
type LintConfig struct {
	// EnabledChecks filters the registered checks by name; empty means
	// every default-enabled check runs.
	EnabledChecks []string     `yaml:"enabled_checks"`
	Naming        NamingConfig `yaml:"naming"`
}

// NamingConfig optionally overrides the built-in case policies with
// regular expressions, one per identifier category.
type NamingConfig struct {
	Function    string `yaml:"function"`
	Type        string `yaml:"type"`
	Constructor string `yaml:"constructor"`
	Module      string `yaml:"module"`
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Format: FormatConfig{
			IndentWidth:      2,
			MaxLineLength:    80,
			ImportGroupOrder: []string{GroupExternal, GroupLocal},
			LocalPrefixes:    nil,
			QualifyThreshold: 15,
			Align: AlignConfig{
				Exports:        true,
				RecordFields:   true,
				Constructors:   true,
				TypeSignatures: true,
				OperatorChains: true,
				DoBindings:     true,
				Pragmas:        true,
			},
		},
	}
}

// CheckEnabled reports whether the named lint check should run.
// defaultOn is the check's registration default, consulted when the
// config does not list checks explicitly.
func (c *Config) CheckEnabled(name string, defaultOn bool) bool {
	if len(c.Lint.EnabledChecks) == 0 {
		return defaultOn
	}
	for _, n := range c.Lint.EnabledChecks {
		if n == name {
			return true
		}
	}
	return false
}

// Validate checks the configuration for values the pipeline cannot
// work with.
func (c *Config) Validate() error {
	if c.Format.IndentWidth < 1 {
		return fmt.Errorf("indent_width must be at least 1, got %d", c.Format.IndentWidth)
	}
	if c.Format.MaxLineLength < 1 {
		return fmt.Errorf("max_line_length must be at least 1, got %d", c.Format.MaxLineLength)
	}
	if c.Format.QualifyThreshold < 1 {
		return fmt.Errorf("qualify_threshold must be at least 1, got %d", c.Format.QualifyThreshold)
	}
	if err := validateGroupOrder(c.Format.ImportGroupOrder); err != nil {
		return err
	}
	for _, pat := range []struct{ name, re string }{
		{"lint.naming.function", c.Lint.Naming.Function},
		{"lint.naming.type", c.Lint.Naming.Type},
		{"lint.naming.constructor", c.Lint.Naming.Constructor},
		{"lint.naming.module", c.Lint.Naming.Module},
	} {
		if pat.re == "" {
			continue
		}
		if _, err := regexp.Compile(pat.re); err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", pat.name, pat.re, err)
		}
	}
	return nil
}

func validateGroupOrder(order []string) error {
	if len(order) != 2 {
		return fmt.Errorf("import_group_order must list both groups, got %v", order)
	}
	seen := map[string]bool{}
	for _, g := range order {
		if g != GroupExternal && g != GroupLocal {
			return fmt.Errorf("import_group_order: unknown group %q", g)
		}
		if seen[g] {
			return fmt.Errorf("import_group_order: duplicate group %q", g)
		}
		seen[g] = true
	}
	return nil
}
