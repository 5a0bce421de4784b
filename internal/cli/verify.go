package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mvp-joe/scopeline/internal/fixture"
	"github.com/mvp-joe/scopeline/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errVerifyFailed makes the command exit non-zero after printing failures.
var errVerifyFailed = errors.New("fixture verification failed")

var (
	verifyRecord      bool
	verifyConcurrency int
	verifyQuiet       bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [paths...]",
	Short: "Check annotated fixture files against the context rules",
	Long: `Verify fixture files. Each {{TEST}} comment starts a case, {{CONTEXT}} marks a
line expected in the context and {{CURSOR}} marks the line whose context is
computed. Directories are searched with the configured fixture patterns; with
no arguments the project root is searched.

Exits non-zero when any case fails. --record stores the run in the history
database (see "scopeline history").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		a, err := newApp(root, verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			args = []string{root}
		}

		_, err = runVerify(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), a, args, verifyOptions{
			record:      verifyRecord,
			concurrency: verifyConcurrency,
			quiet:       verifyQuiet,
		})
		return err
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyRecord, "record", false, "store the run in the history database")
	verifyCmd.Flags().IntVarP(&verifyConcurrency, "concurrency", "j", runtime.NumCPU(), "files verified in parallel")
	verifyCmd.Flags().BoolVarP(&verifyQuiet, "quiet", "q", false, "suppress the progress bar")

	rootCmd.AddCommand(verifyCmd)
}

type verifyOptions struct {
	record      bool
	concurrency int
	quiet       bool
}

// verifySummary totals a verification run.
type verifySummary struct {
	Reports     []*fixture.Report
	Files       int
	FailedFiles int
	Cases       int
	FailedCases int
	RunID       string
}

// Passed reports whether every file loaded and every case matched.
func (s *verifySummary) Passed() bool {
	return s.FailedFiles == 0
}

// runVerify verifies the fixtures under paths, prints failures to out and the
// progress bar to progress. It returns errVerifyFailed when anything failed.
func runVerify(ctx context.Context, out, progress io.Writer, a *app, paths []string, opts verifyOptions) (*verifySummary, error) {
	files, err := fixture.Expand(paths, a.cfg.Paths.Fixtures, a.cfg.Paths.Ignore, a.verifier.Tokens())
	if err != nil {
		return nil, fmt.Errorf("failed to find fixtures: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no fixtures found in %s", strings.Join(paths, ", "))
	}

	a.logger.Debug("verifying fixtures", zap.Int("files", len(files)), zap.Int("concurrency", opts.concurrency))

	started := time.Now()
	bar := newVerifyProgress(progress, len(files), opts.quiet)
	reports, err := a.verifier.VerifyAll(ctx, files, opts.concurrency, bar.OnFileVerified)
	bar.Finish()
	if err != nil {
		return nil, err
	}
	finished := time.Now()

	summary := summarizeReports(reports)
	printReports(out, a.root, summary)

	if opts.record {
		s, err := store.Open(a.cfg.DBPath(a.root))
		if err != nil {
			return nil, err
		}
		defer s.Close()

		run, err := s.RecordRun(ctx, store.Run{
			StartedAt:  started,
			FinishedAt: finished,
			Branch:     a.git.CurrentBranch(a.root),
			Commit:     a.git.HeadCommit(a.root),
		}, toRecords(a.root, reports))
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		summary.RunID = run.ID
		fmt.Fprintf(out, "Recorded run %s\n", run.ID)
	}

	if !summary.Passed() {
		return summary, errVerifyFailed
	}
	return summary, nil
}

func summarizeReports(reports []*fixture.Report) *verifySummary {
	s := &verifySummary{Reports: reports, Files: len(reports)}
	for _, r := range reports {
		s.Cases += len(r.Cases)
		s.FailedCases += len(r.Failures())
		if !r.Passed() {
			s.FailedFiles++
		}
	}
	return s
}

func printReports(w io.Writer, root string, s *verifySummary) {
	for _, r := range s.Reports {
		path := relPath(root, r.Path)
		if r.Err != nil {
			fmt.Fprintf(w, "ERROR %s: %v\n", path, r.Err)
			continue
		}
		for _, c := range r.Failures() {
			fmt.Fprintf(w, "FAIL %s case %d (cursor line %d)\n", path, c.Case.Index+1, c.Case.Cursor+1)
			if len(c.Missing) > 0 {
				fmt.Fprintf(w, "  missing:    %s\n", joinLines(c.Missing))
			}
			if len(c.Unexpected) > 0 {
				fmt.Fprintf(w, "  unexpected: %s\n", joinLines(c.Unexpected))
			}
			for _, l := range c.Lines {
				fmt.Fprintf(w, "  %5d | %s\n", l.Row+1, l.Text)
			}
		}
	}

	if s.Passed() {
		fmt.Fprintf(w, "✓ %s cases passed in %s files\n", formatNumber(s.Cases), formatNumber(s.Files))
		return
	}
	fmt.Fprintf(w, "✗ %s of %s cases failed, %s of %s files failed\n",
		formatNumber(s.FailedCases), formatNumber(s.Cases),
		formatNumber(s.FailedFiles), formatNumber(s.Files))
}

// toRecords flattens reports into history rows with root-relative paths.
func toRecords(root string, reports []*fixture.Report) []store.CaseRecord {
	var records []store.CaseRecord
	for _, r := range reports {
		path := relPath(root, r.Path)
		if r.Err != nil {
			records = append(records, store.CaseRecord{
				Path:      path,
				Language:  r.Language,
				CaseIndex: -1,
				Error:     r.Err.Error(),
			})
			continue
		}
		for _, c := range r.Cases {
			records = append(records, store.CaseRecord{
				Path:      path,
				Language:  r.Language,
				CaseIndex: c.Case.Index,
				Cursor:    c.Case.Cursor,
				Expected:  c.Expected,
				Actual:    c.Actual,
				Passed:    c.Passed,
			})
		}
	}
	return records
}

func joinLines(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%d", r+1)
	}
	return strings.Join(parts, ", ")
}

// relPath shortens path for display when it lies below root.
func relPath(root, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
