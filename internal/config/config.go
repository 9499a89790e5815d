// Package config loads and validates .hsi.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	hsierrors "github.com/substratelabs/hsi/internal/errors"
	"github.com/substratelabs/hsi/internal/types"
)

// ConfigFileName is looked up in the project root.
const ConfigFileName = ".hsi.toml"

type Config struct {
	Version int     `toml:"version"`
	Project Project `toml:"project"`
	Index   Index   `toml:"index"`
	Search  Search  `toml:"search"`

	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Index struct {
	MaxFileSize      int64 `toml:"max_file_size"`
	MaxFileCount     int   `toml:"max_file_count"`
	FollowSymlinks   bool  `toml:"follow_symlinks"`
	RespectGitignore bool  `toml:"respect_gitignore"`
	WatchMode        bool  `toml:"watch_mode"`
	WatchDebounceMs  int   `toml:"watch_debounce_ms"`
}

type Search struct {
	// UniversalBase names the type whose subtype query degenerates to a
	// whole-graph scan (e.g. "java.lang.Object"). Empty disables it.
	UniversalBase string `toml:"universal_base"`
	// MatchMode is the default name matching mode: exact, insensitive,
	// substring, or fuzzy.
	MatchMode string `toml:"match_mode"`
	// FuzzyThreshold is the Jaro-Winkler cutoff for fuzzy matching.
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	// IncludeAnonymous reports anonymous and local types by default.
	IncludeAnonymous bool `toml:"include_anonymous"`
}

// Default returns the configuration used when no config file exists.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Index: Index{
			MaxFileSize:      types.DefaultMaxFileSize,
			MaxFileCount:     types.DefaultMaxFileCount,
			RespectGitignore: true,
			WatchDebounceMs:  300,
		},
		Search: Search{
			UniversalBase:  "java.lang.Object",
			MatchMode:      "exact",
			FuzzyThreshold: 0.80,
		},
		Include: []string{"**/*"},
		Exclude: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/target/**",
			"**/build/**",
			"**/dist/**",
		},
	}
}

// Load reads the config file from root, falling back to defaults when the
// file is absent. A present but malformed file is an error.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, hsierrors.NewConfigError("file", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, hsierrors.NewConfigError("file", path, err)
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = root
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and normalizes unset fields to defaults.
func (c *Config) Validate() error {
	if c.Project.Root == "" {
		return hsierrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}

	if c.Index.MaxFileSize <= 0 {
		c.Index.MaxFileSize = types.DefaultMaxFileSize
	}
	if c.Index.MaxFileSize > 100*1024*1024 {
		return hsierrors.NewConfigError("index.max_file_size",
			fmt.Sprintf("%d", c.Index.MaxFileSize),
			errors.New("max_file_size should not exceed 100MB"))
	}
	if c.Index.MaxFileCount <= 0 {
		c.Index.MaxFileCount = types.DefaultMaxFileCount
	}
	if c.Index.WatchDebounceMs < 0 {
		return hsierrors.NewConfigError("index.watch_debounce_ms",
			fmt.Sprintf("%d", c.Index.WatchDebounceMs),
			errors.New("watch_debounce_ms cannot be negative"))
	}
	if c.Index.WatchDebounceMs == 0 {
		c.Index.WatchDebounceMs = 300
	}

	switch c.Search.MatchMode {
	case "", "exact", "insensitive", "substring", "fuzzy":
	default:
		return hsierrors.NewConfigError("search.match_mode", c.Search.MatchMode,
			errors.New("match_mode must be exact, insensitive, substring, or fuzzy"))
	}
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return hsierrors.NewConfigError("search.fuzzy_threshold",
			fmt.Sprintf("%g", c.Search.FuzzyThreshold),
			errors.New("fuzzy_threshold must be between 0 and 1"))
	}
	if c.Search.FuzzyThreshold == 0 {
		c.Search.FuzzyThreshold = 0.80
	}

	if len(c.Include) == 0 {
		c.Include = []string{"**/*"}
	}
	return nil
}
