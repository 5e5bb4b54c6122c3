package config

import (
	"fmt"

	"github.com/mstoykov/envconfig"
)

// Env holds the HSFMT_* environment overrides. Numeric fields are
// pointers so an unset variable leaves the file value alone.
type Env struct {
	ConfigPath       string `envconfig:"HSFMT_CONFIG"`
	IndentWidth      *int   `envconfig:"HSFMT_INDENT_WIDTH"`
	MaxLineLength    *int   `envconfig:"HSFMT_MAX_LINE_LENGTH"`
	QualifyThreshold *int   `envconfig:"HSFMT_QUALIFY_THRESHOLD"`
	Jobs             *int   `envconfig:"HSFMT_JOBS"`
}

// ParseEnv reads the HSFMT_* variables through the given lookup.
func ParseEnv(lookup func(string) (string, bool)) (*Env, error) {
	env := &Env{}
	if err := envconfig.Process("", env, lookup); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// Apply copies the set overrides onto cfg.
func (e *Env) Apply(cfg *Config) {
	if e.IndentWidth != nil {
		cfg.Format.IndentWidth = *e.IndentWidth
	}
	if e.MaxLineLength != nil {
		cfg.Format.MaxLineLength = *e.MaxLineLength
	}
	if e.QualifyThreshold != nil {
		cfg.Format.QualifyThreshold = *e.QualifyThreshold
	}
}
