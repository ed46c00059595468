package hexward

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/config"
	"github.com/hexward/hexward/internal/engine"
	"github.com/hexward/hexward/internal/logging"
)

const (
	defaultHashDB    = "signatures/main.hdb"
	defaultPatternDB = "signatures/main.ndb"
)

// settings is the merged view of flags, local config and global config.
type settings struct {
	HashDB    string
	PatternDB string
	CachePath string
	Slow      bool
	Include   string
	Exclude   string
	MaxBytes  int64
	NoColor   bool
	LogLevel  string
	LogJSON   bool
}

// loadSettings resolves CLI > local (in dir) > global > defaults for the
// persistent flags and initializes logging.
func loadSettings(dir string) (settings, error) {
	fc, err := config.Discover(dir)
	if err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	s := settings{
		HashDB:    pickString(flagHashDB, fc.HashDB, defaultHashDB),
		PatternDB: pickString(flagPatternDB, fc.PatternDB, defaultPatternDB),
		CachePath: pickString(flagCache, fc.Cache, cache.DefaultPath()),
		Slow:      pickBool(false, fc.Slow),
		Include:   pickString("", fc.Include, ""),
		Exclude:   pickString("", fc.Exclude, ""),
		MaxBytes:  pickInt64(0, fc.MaxBytes),
		NoColor:   pickBool(flagNoColor, fc.NoColor),
		LogLevel:  pickString(flagLogLevel, fc.LogLevel, "warn"),
		LogJSON:   pickBool(false, fc.LogJSON),
	}
	logging.Init(logging.Options{JSON: s.LogJSON, Level: s.LogLevel})
	return s, nil
}

func (s settings) engineConfig() engine.Config {
	return engine.Config{
		HashDB:       s.HashDB,
		PatternDB:    s.PatternDB,
		CachePath:    s.CachePath,
		IncludeGlobs: s.Include,
		ExcludeGlobs: s.Exclude,
		MaxBytes:     s.MaxBytes,
		Logger:       slog.Default(),
	}
}

func absDir(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func pickString(cli string, cfg *string, def string) string {
	if cli != "" {
		return cli
	}
	if cfg != nil && *cfg != "" {
		return *cfg
	}
	return def
}

func pickInt64(cli int64, cfg *int64) int64 {
	if cli != 0 {
		return cli
	}
	if cfg != nil && *cfg != 0 {
		return *cfg
	}
	return 0
}

func pickBool(cli bool, cfg *bool) bool {
	if cli {
		return true
	}
	if cfg != nil {
		return *cfg
	}
	return false
}
