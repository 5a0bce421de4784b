package cli

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/scopeline/internal/config"
	"github.com/mvp-joe/scopeline/internal/fixture"
	"github.com/mvp-joe/scopeline/internal/git"
	"github.com/mvp-joe/scopeline/internal/scope"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the components shared by the commands.
type app struct {
	root      string
	cfg       *config.Config
	logger    *zap.Logger
	cache     *scope.Cache
	extractor *scope.Extractor
	verifier  *fixture.Verifier
	git       git.Operations
}

// newApp loads the project configuration and wires the components.
func newApp(root string, verbose bool) (*app, error) {
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, _, err := newLogger(cfg.Log.Level, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return buildApp(root, cfg, logger)
}

func buildApp(root string, cfg *config.Config, logger *zap.Logger) (*app, error) {
	cache, err := scope.NewCache(cfg.Cache.Capacity, cfg.CacheTTL())
	if err != nil {
		return nil, err
	}

	extractor := scope.NewExtractor(scope.NewRegistry(), cache, cfg.ToExtractOptions(), logger)

	// Verification never truncates; fixtures list every enclosing row.
	verifyOpts := extractor.Options()
	verifyOpts.MaxLines = 0

	return &app{
		root:      root,
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		extractor: extractor,
		verifier:  fixture.NewVerifier(extractor.WithOptions(verifyOpts), cfg.Markers, logger),
		git:       git.NewOperations(),
	}, nil
}

// Close releases the cache and flushes the logger.
func (a *app) Close() {
	a.logger.Debug("index cache stats",
		zap.Int("entries", a.cache.Len()),
		zap.Float64("hit_ratio", a.cache.HitRatio()))
	a.cache.Close()
	_ = a.logger.Sync()
}

// newLogger builds a production zap logger writing to stderr. verbose forces
// debug level.
func newLogger(level string, verbose bool) (*zap.Logger, zap.AtomicLevel, error) {
	atomicLevel, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	if verbose {
		atomicLevel.SetLevel(zapcore.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = atomicLevel
	loggerConfig.Encoding = "console"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.OutputPaths = []string{"stderr"}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, atomicLevel, nil
}
