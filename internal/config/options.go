package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/scopeline/internal/normalize"
	"github.com/mvp-joe/scopeline/internal/scope"
)

// ToExtractOptions converts the context and normalize sections to extractor
// options.
func (c *Config) ToExtractOptions() scope.Options {
	return scope.Options{
		MaxLines:           c.Context.MaxLines,
		TrimScope:          strings.ToLower(c.Context.TrimScope),
		MultilineThreshold: c.Context.MultilineThreshold,
		Normalize: normalize.Rules{
			TrimTrailingBlank: c.Normalize.TrimTrailingBlank,
			CollapseBlank:     c.Normalize.CollapseBlank,
			StripMarkers:      c.Normalize.StripMarkers,
			Tokens:            c.Markers.List(),
		},
	}
}

// CacheTTL returns the configured index cache TTL; zero disables expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// DBPath resolves the history database path against rootDir.
func (c *Config) DBPath(rootDir string) string {
	if filepath.IsAbs(c.Storage.DBPath) {
		return c.Storage.DBPath
	}
	return filepath.Join(rootDir, c.Storage.DBPath)
}
