package fixture

import (
	"context"
	"fmt"

	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/mvp-joe/scopeline/internal/scope"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CaseResult compares the expected and extracted context rows of one case.
type CaseResult struct {
	Case       marker.Case
	Expected   []int
	Actual     []int
	Missing    []int
	Unexpected []int
	Lines      []scope.Line
	Passed     bool
}

// Report is the outcome of verifying one fixture file. Err is set when the
// file could not be loaded or extracted; Cases is then incomplete.
type Report struct {
	Path     string
	Language string
	Cases    []CaseResult
	Err      error
}

// Passed reports whether the file loaded and every case matched.
func (r *Report) Passed() bool {
	if r.Err != nil {
		return false
	}
	for _, c := range r.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns the cases that did not match.
func (r *Report) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Verifier runs the extractor over fixture cases.
type Verifier struct {
	extractor *scope.Extractor
	tokens    marker.Tokens
	logger    *zap.Logger
}

// NewVerifier creates a verifier. A nil logger disables logging.
func NewVerifier(extractor *scope.Extractor, tokens marker.Tokens, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{extractor: extractor, tokens: tokens, logger: logger}
}

// Tokens returns the marker tokens fixtures are parsed with.
func (v *Verifier) Tokens() marker.Tokens {
	return v.tokens
}

// Verify checks every case of fx.
func (v *Verifier) Verify(ctx context.Context, fx *Fixture) (*Report, error) {
	report := &Report{Path: fx.Path, Language: fx.Language}

	for _, c := range fx.Cases {
		res, err := v.extractor.Extract(ctx, scope.Request{
			Path:     fx.Path,
			Language: fx.Language,
			Source:   fx.Source,
			Line:     c.Cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("case %d of %s: %w", c.Index, fx.Path, err)
		}

		actual := res.Rows()
		missing, unexpected := diffRows(c.Context, actual)
		cr := CaseResult{
			Case:       c,
			Expected:   c.Context,
			Actual:     actual,
			Missing:    missing,
			Unexpected: unexpected,
			Lines:      res.Lines,
			Passed:     len(missing) == 0 && len(unexpected) == 0,
		}
		if !cr.Passed {
			v.logger.Debug("fixture case mismatch",
				zap.String("path", fx.Path),
				zap.Int("case", c.Index),
				zap.Ints("missing", missing),
				zap.Ints("unexpected", unexpected))
		}
		report.Cases = append(report.Cases, cr)
	}

	return report, nil
}

// VerifyFile loads and verifies a single file. Load and extraction failures
// are recorded on the report rather than returned.
func (v *Verifier) VerifyFile(ctx context.Context, path string) *Report {
	fx, err := Load(path, v.extractor.Registry(), v.tokens)
	if err != nil {
		return &Report{Path: path, Err: err}
	}

	report, err := v.Verify(ctx, fx)
	if err != nil {
		return &Report{Path: path, Language: fx.Language, Err: err}
	}
	return report
}

// VerifyAll verifies paths with at most concurrency files in flight. Reports
// come back in the order of paths. onDone, when non-nil, is called once per
// finished file and may be called from several goroutines.
func (v *Verifier) VerifyAll(ctx context.Context, paths []string, concurrency int, onDone func(*Report)) ([]*Report, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := v.VerifyFile(ctx, path)
			reports[i] = r
			if onDone != nil {
				onDone(r)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// diffRows returns the rows of want missing from got and the rows of got
// absent from want.
func diffRows(want, got []int) (missing, unexpected []int) {
	inGot := make(map[int]bool, len(got))
	for _, r := range got {
		inGot[r] = true
	}
	inWant := make(map[int]bool, len(want))
	for _, r := range want {
		inWant[r] = true
		if !inGot[r] {
			missing = append(missing, r)
		}
	}
	for _, r := range got {
		if !inWant[r] {
			unexpected = append(unexpected, r)
		}
	}
	return missing, unexpected
}
