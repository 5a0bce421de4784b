package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/scopeline/internal/scope"
)

var (
	// ErrInvalidTrimScope indicates a trim scope other than outer or inner
	ErrInvalidTrimScope = errors.New("invalid trim scope")

	// ErrInvalidLimit indicates a negative line limit
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrEmptyMarker indicates a blank marker token
	ErrEmptyMarker = errors.New("empty marker")

	// ErrDuplicateMarker indicates two marker kinds sharing a token
	ErrDuplicateMarker = errors.New("duplicate marker")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidCache indicates invalid index cache settings
	ErrInvalidCache = errors.New("invalid cache settings")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid path pattern")
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateContext(&cfg.Context); err != nil {
		errs = append(errs, err)
	}

	if err := validateMarkers(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidCache, cfg.Cache.Capacity))
	}
	if cfg.Cache.TTLMinutes < 0 {
		errs = append(errs, fmt.Errorf("%w: ttl_minutes cannot be negative, got %d", ErrInvalidCache, cfg.Cache.TTLMinutes))
	}

	if !logLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Log.Level))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateContext(cfg *ContextConfig) error {
	var errs []error

	scopeName := strings.ToLower(cfg.TrimScope)
	if scopeName != scope.TrimOuter && scopeName != scope.TrimInner {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidTrimScope, scope.TrimOuter, scope.TrimInner, cfg.TrimScope))
	}

	if cfg.MaxLines < 0 {
		errs = append(errs, fmt.Errorf("%w: max_lines cannot be negative, got %d", ErrInvalidLimit, cfg.MaxLines))
	}

	if cfg.MultilineThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: multiline_threshold cannot be negative, got %d", ErrInvalidLimit, cfg.MultilineThreshold))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateMarkers(cfg *Config) error {
	var errs []error

	fields := []struct {
		name  string
		token string
	}{
		{"test", cfg.Markers.Test},
		{"context", cfg.Markers.Context},
		{"cursor", cfg.Markers.Cursor},
	}

	seen := make(map[string]string)
	for _, f := range fields {
		if strings.TrimSpace(f.token) == "" {
			errs = append(errs, fmt.Errorf("%w: markers.%s is required", ErrEmptyMarker, f.name))
			continue
		}
		if other, ok := seen[f.token]; ok {
			errs = append(errs, fmt.Errorf("%w: markers.%s and markers.%s are both '%s'", ErrDuplicateMarker, other, f.name, f.token))
			continue
		}
		seen[f.token] = f.name
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	// Empty pattern lists are allowed; explicit file arguments still work.
	for _, p := range append(append([]string{}, cfg.Fixtures...), cfg.Ignore...) {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: '%s': %v", ErrInvalidPattern, p, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// validationError lists several field errors while keeping each one
// reachable through errors.Is.
type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	var msgs []string
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationError) Unwrap() []error {
	return e.errs
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return &validationError{errs: errs}
}
