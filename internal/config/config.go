package config

import (
	"path/filepath"

	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/mvp-joe/scopeline/internal/scope"
)

// Config represents the complete scopeline configuration.
// It can be loaded from .scopeline/config.yml with environment variable overrides.
type Config struct {
	Context   ContextConfig   `yaml:"context" mapstructure:"context"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Markers   marker.Tokens   `yaml:"markers" mapstructure:"markers"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ContextConfig bounds the context computed for a cursor.
type ContextConfig struct {
	MaxLines           int    `yaml:"max_lines" mapstructure:"max_lines"`                     // 0 = unlimited
	TrimScope          string `yaml:"trim_scope" mapstructure:"trim_scope"`                   // "outer" or "inner"
	MultilineThreshold int    `yaml:"multiline_threshold" mapstructure:"multiline_threshold"` // max rows per header, 0 = unlimited
}

// NormalizeConfig selects the row normalizations.
type NormalizeConfig struct {
	TrimTrailingBlank bool `yaml:"trim_trailing_blank" mapstructure:"trim_trailing_blank"`
	CollapseBlank     bool `yaml:"collapse_blank" mapstructure:"collapse_blank"`
	StripMarkers      bool `yaml:"strip_markers" mapstructure:"strip_markers"`
}

// PathsConfig defines which files are fixtures and which to ignore.
type PathsConfig struct {
	Fixtures []string `yaml:"fixtures" mapstructure:"fixtures"` // glob patterns for fixture files
	Ignore   []string `yaml:"ignore" mapstructure:"ignore"`     // glob patterns to ignore
}

// CacheConfig sizes the parsed-index cache.
type CacheConfig struct {
	Capacity   int `yaml:"capacity" mapstructure:"capacity"`
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"` // 0 = no expiry
}

// StorageConfig locates the run history database.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // relative paths resolve against the project root
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Context: ContextConfig{
			MaxLines:           0,
			TrimScope:          scope.TrimOuter,
			MultilineThreshold: scope.DefaultMultilineThreshold,
		},
		Normalize: NormalizeConfig{
			TrimTrailingBlank: true,
			CollapseBlank:     false,
			StripMarkers:      true,
		},
		Markers: marker.DefaultTokens(),
		Paths: PathsConfig{
			Fixtures: []string{
				"**/*.go",
				"**/*.rb",
				"**/*.py",
				"**/*.rs",
				"**/*.c",
				"**/*.h",
				"**/*.java",
				"**/*.php",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
			},
		},
		Cache: CacheConfig{
			Capacity:   256,
			TTLMinutes: 0,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(".scopeline", "history.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
