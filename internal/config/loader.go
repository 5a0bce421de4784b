package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigDir is the per-project directory holding config.yml and the history
// database.
const ConfigDir = ".scopeline"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	// dirs are merged in order; later files override earlier ones.
	dirs []string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		dirs: []string{filepath.Join(rootDir, ConfigDir)},
	}
}

// NewLayeredLoader creates a loader that reads the user config in globalDir
// first and lets the project config under rootDir override it.
func NewLayeredLoader(globalDir, rootDir string) Loader {
	return &loader{
		dirs: []string{globalDir, filepath.Join(rootDir, ConfigDir)},
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (SCOPELINE_*)
// 2. Project config file (.scopeline/config.yml or .scopeline/config.yaml)
// 3. User config file (~/.scopeline/config.yml), for layered loaders
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	// SCOPELINE_CONTEXT_MAX_LINES -> context.max_lines
	v.SetEnvPrefix("SCOPELINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only sees keys viper already knows; bind the scalars
	// explicitly so Unmarshal picks them up.
	for _, key := range []string{
		"context.max_lines",
		"context.trim_scope",
		"context.multiline_threshold",
		"normalize.trim_trailing_blank",
		"normalize.collapse_blank",
		"normalize.strip_markers",
		"markers.test",
		"markers.context",
		"markers.cursor",
		"cache.capacity",
		"cache.ttl_minutes",
		"storage.db_path",
		"log.level",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	// Missing config files are acceptable - we'll use defaults + env vars
	for _, dir := range l.dirs {
		path, ok := findConfigFile(dir)
		if !ok {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("context.max_lines", defaults.Context.MaxLines)
	v.SetDefault("context.trim_scope", defaults.Context.TrimScope)
	v.SetDefault("context.multiline_threshold", defaults.Context.MultilineThreshold)

	v.SetDefault("normalize.trim_trailing_blank", defaults.Normalize.TrimTrailingBlank)
	v.SetDefault("normalize.collapse_blank", defaults.Normalize.CollapseBlank)
	v.SetDefault("normalize.strip_markers", defaults.Normalize.StripMarkers)

	v.SetDefault("markers.test", defaults.Markers.Test)
	v.SetDefault("markers.context", defaults.Markers.Context)
	v.SetDefault("markers.cursor", defaults.Markers.Cursor)

	v.SetDefault("paths.fixtures", defaults.Paths.Fixtures)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
	v.SetDefault("cache.ttl_minutes", defaults.Cache.TTLMinutes)

	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	v.SetDefault("log.level", defaults.Log.Level)
}

// findConfigFile returns config.yml or config.yaml in dir.
func findConfigFile(dir string) (string, bool) {
	for _, name := range []string{"config.yml", "config.yaml"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// GlobalConfigDir returns the user-level config directory, ~/.scopeline.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ConfigDir), nil
}

// LoadConfigFromDir loads the project configuration of rootDir layered over
// the user configuration. Without a home directory only the project config is read.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return NewLoader(rootDir).Load()
	}
	return NewLayeredLoader(globalDir, rootDir).Load()
}
