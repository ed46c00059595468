package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for hexward. Every
// field is optional so that a missing key never overrides a lower layer.
type FileConfig struct {
	HashDB    *string `yaml:"hash_db"`
	PatternDB *string `yaml:"pattern_db"`
	Cache     *string `yaml:"cache"`

	Slow     *bool   `yaml:"slow"`
	Include  *string `yaml:"include"`
	Exclude  *string `yaml:"exclude"`
	MaxBytes *int64  `yaml:"max_bytes"`
	NoColor  *bool   `yaml:"no_color"`

	LogLevel *string `yaml:"log_level"`
	LogJSON  *bool   `yaml:"log_json"`
}

// Template is written by `hexward config init`.
const Template = `# hexward configuration
hash_db: signatures/main.hdb
pattern_db: signatures/main.ndb
# cache: ~/.cache/hexward/index.json
slow: false
include: ""
exclude: ""
max_bytes: 0
no_color: false
log_level: warn
log_json: false
`

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LocalNames lists the file names LoadLocal looks for, in order.
var LocalNames = []string{".hexward.yml", ".hexward.yaml", "hexward.yml", "hexward.yaml"}

// LoadLocal searches for a config file in the given directory.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the location of the global config file, or "" when no
// config directory can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "hexward", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Overlay returns fc with every field that is set in top replacing the
// corresponding field of fc.
func (fc FileConfig) Overlay(top FileConfig) FileConfig {
	out := fc
	if top.HashDB != nil {
		out.HashDB = top.HashDB
	}
	if top.PatternDB != nil {
		out.PatternDB = top.PatternDB
	}
	if top.Cache != nil {
		out.Cache = top.Cache
	}
	if top.Slow != nil {
		out.Slow = top.Slow
	}
	if top.Include != nil {
		out.Include = top.Include
	}
	if top.Exclude != nil {
		out.Exclude = top.Exclude
	}
	if top.MaxBytes != nil {
		out.MaxBytes = top.MaxBytes
	}
	if top.NoColor != nil {
		out.NoColor = top.NoColor
	}
	if top.LogLevel != nil {
		out.LogLevel = top.LogLevel
	}
	if top.LogJSON != nil {
		out.LogJSON = top.LogJSON
	}
	return out
}

// Discover merges the global config with the local one found in dir, local
// winning. Missing files are not an error; a malformed one is.
func Discover(dir string) (FileConfig, error) {
	var merged FileConfig
	if p := GlobalPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			g, err := LoadFile(p)
			if err != nil {
				return merged, err
			}
			merged = g
		}
	}
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		l, err := LoadFile(p)
		if err != nil {
			return merged, err
		}
		return merged.Overlay(l), nil
	}
	return merged, nil
}

// String returns *s or def when s is nil.
func String(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// Bool returns *b or def when b is nil.
func Bool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Int64 returns *n or def when n is nil.
func Int64(n *int64, def int64) int64 {
	if n == nil {
		return def
	}
	return *n
}
