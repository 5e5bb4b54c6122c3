package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileNames is the ordered list of config file names to search for.
var configFileNames = []string{
	"hsfmt.yml",
	"hsfmt.yaml",
	".hsfmt.yml",
	".hsfmt.yaml",
}

// Discover returns the path of the first config file found in dir,
// following the standard search order. It returns an empty string if
// no config file is found.
func Discover(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and parses an hsfmt config file and applies HSFMT_*
// environment overrides on top. If configPath is non-empty, that file
// is loaded directly. Otherwise Load honors HSFMT_CONFIG, then
// searches the current working directory using Discover. If no config
// file is found, DefaultConfig is the base.
//
// Partial YAML files are supported: any fields not specified in the
// YAML retain their default values.
func Load(configPath string) (*Config, error) {
	return LoadWithLookup(configPath, os.LookupEnv)
}

// LoadWithLookup is Load with an explicit environment lookup, for
// callers that own their environment (tests, embedding tools).
func LoadWithLookup(configPath string, lookup func(string) (string, bool)) (*Config, error) {
	env, err := ParseEnv(lookup)
	if err != nil {
		return nil, err
	}

	if configPath == "" {
		configPath = env.ConfigPath
	}
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		configPath = Discover(wd)
	}

	cfg := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		// Start from defaults so missing YAML fields retain non-zero
		// defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	env.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		return nil, err
	}
	return cfg, nil
}
