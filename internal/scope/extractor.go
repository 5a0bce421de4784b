package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvp-joe/scopeline/internal/normalize"
	"go.uber.org/zap"
)

// ErrLineOutOfRange indicates a cursor line outside the source.
var ErrLineOutOfRange = errors.New("line out of range")

// Trim scopes accepted by Options.TrimScope.
const (
	TrimOuter = "outer"
	TrimInner = "inner"
)

// DefaultMultilineThreshold caps the rows a single header may contribute.
const DefaultMultilineThreshold = 20

// Options tunes extraction.
type Options struct {
	// MaxLines bounds the total context rows; 0 means unlimited.
	MaxLines int

	// TrimScope picks which scopes are dropped first when MaxLines is hit:
	// "outer" drops the outermost, "inner" the innermost.
	TrimScope string

	// MultilineThreshold caps the rows of one header; 0 means unlimited.
	MultilineThreshold int

	// Normalize declares the normalization applied to every range.
	Normalize normalize.Rules
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		TrimScope:          TrimOuter,
		MultilineThreshold: DefaultMultilineThreshold,
		Normalize:          normalize.Rules{TrimTrailingBlank: true},
	}
}

// Request asks for the context of one line. Line is 0-based. Language is
// optional when Path carries a known extension.
type Request struct {
	Path     string
	Language string
	Source   []byte
	Line     int
}

// Range is one scope header clipped to the rows above the cursor. Rows lists
// the rows kept after normalization.
type Range struct {
	Kind     string `json:"kind"`
	StartRow int    `json:"start_row"`
	EndRow   int    `json:"end_row"`
	Rows     []int  `json:"rows"`
}

// Line is one context row and its display text.
type Line struct {
	Row  int    `json:"row"`
	Text string `json:"text"`
}

// Result is the context computed for a request.
type Result struct {
	Language string  `json:"language"`
	Line     int     `json:"line"`
	Ranges   []Range `json:"ranges"`
	Lines    []Line  `json:"lines"`
}

// Rows returns the context rows in display order.
func (r *Result) Rows() []int {
	rows := make([]int, 0, len(r.Lines))
	for _, l := range r.Lines {
		rows = append(rows, l.Row)
	}
	return rows
}

// Extractor computes cursor context. It is safe for concurrent use.
type Extractor struct {
	registry   *Registry
	cache      *Cache
	opts       Options
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// NewExtractor creates an extractor. cache may be nil, in which case every
// request parses its source. A nil logger disables logging.
func NewExtractor(registry *Registry, cache *Cache, opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TrimScope == "" {
		opts.TrimScope = TrimOuter
	}
	return &Extractor{
		registry:   registry,
		cache:      cache,
		opts:       opts,
		normalizer: normalize.New(opts.Normalize),
		logger:     logger,
	}
}

// Registry returns the extractor's language registry.
func (e *Extractor) Registry() *Registry {
	return e.registry
}

// Options returns the extractor's options.
func (e *Extractor) Options() Options {
	return e.opts
}

// WithOptions returns an extractor that shares e's registry, cache and
// logger but applies opts.
func (e *Extractor) WithOptions(opts Options) *Extractor {
	return NewExtractor(e.registry, e.cache, opts, e.logger)
}

// Extract computes the context of req.Line.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Result, error) {
	lang, err := e.registry.Resolve(req.Language, req.Path)
	if err != nil {
		return nil, err
	}

	idx, err := e.index(ctx, lang, req.Source)
	if err != nil {
		return nil, err
	}

	if req.Line < 0 || req.Line >= len(idx.Lines) {
		return nil, fmt.Errorf("%w: %d (file has %d lines)", ErrLineOutOfRange, req.Line+1, len(idx.Lines))
	}

	ranges := e.ranges(idx, req.Line)
	ranges = e.limit(ranges)

	result := &Result{
		Language: lang.Name,
		Line:     req.Line,
		Ranges:   ranges,
		Lines:    []Line{},
	}
	for _, r := range ranges {
		for _, row := range r.Rows {
			result.Lines = append(result.Lines, Line{Row: row, Text: e.normalizer.Text(idx.Lines[row])})
		}
	}

	e.logger.Debug("extracted context",
		zap.String("path", req.Path),
		zap.String("language", lang.Name),
		zap.Int("line", req.Line),
		zap.Int("ranges", len(result.Ranges)),
		zap.Int("rows", len(result.Lines)))

	return result, nil
}

// index returns the parsed index for src, from the cache when possible.
func (e *Extractor) index(ctx context.Context, lang *Language, src []byte) (*Index, error) {
	if e.cache == nil {
		return Parse(ctx, lang, src)
	}

	key := cacheKey(lang.Name, src)
	if idx, ok := e.cache.Get(key); ok {
		return idx, nil
	}

	idx, err := Parse(ctx, lang, src)
	if err != nil {
		return nil, err
	}
	if idx.HasError {
		e.logger.Debug("source has syntax errors", zap.String("language", lang.Name))
	}
	e.cache.Set(key, idx)
	return idx, nil
}

// ranges turns the scopes enclosing line into normalized header ranges,
// outermost first.
func (e *Extractor) ranges(idx *Index, line int) []Range {
	var ranges []Range
	for _, s := range idx.Enclosing(line) {
		end := s.HeaderEnd
		if end >= line {
			end = line - 1
		}
		if end < s.StartRow {
			continue
		}

		// Headers that share or overlap rows collapse into one range.
		if n := len(ranges); n > 0 && s.StartRow <= ranges[n-1].EndRow {
			if end > ranges[n-1].EndRow {
				ranges[n-1].EndRow = end
			}
			continue
		}
		ranges = append(ranges, Range{Kind: s.Kind, StartRow: s.StartRow, EndRow: end})
	}

	out := ranges[:0]
	for _, r := range ranges {
		if t := e.opts.MultilineThreshold; t > 0 && r.EndRow-r.StartRow+1 > t {
			r.EndRow = r.StartRow + t - 1
		}
		r.Rows = e.normalizer.Rows(r.StartRow, r.EndRow, idx.Lines)
		if len(r.Rows) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// limit applies MaxLines. Whole ranges are dropped from the side named by
// TrimScope; the first range that no longer fits keeps its leading rows.
func (e *Extractor) limit(ranges []Range) []Range {
	budget := e.opts.MaxLines
	if budget <= 0 {
		return ranges
	}

	total := 0
	for _, r := range ranges {
		total += len(r.Rows)
	}
	if total <= budget {
		return ranges
	}

	// Walk from the side that is kept.
	order := make([]int, len(ranges))
	for i := range ranges {
		if e.opts.TrimScope == TrimInner {
			order[i] = i
		} else {
			order[i] = len(ranges) - 1 - i
		}
	}

	keep := make([]bool, len(ranges))
	for _, i := range order {
		if budget == 0 {
			break
		}
		if len(ranges[i].Rows) > budget {
			ranges[i].Rows = ranges[i].Rows[:budget]
			ranges[i].EndRow = ranges[i].Rows[budget-1]
		}
		budget -= len(ranges[i].Rows)
		keep[i] = true
	}

	out := make([]Range, 0, len(ranges))
	for i, r := range ranges {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
