package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/mvp-joe/scopeline/internal/fixture"
	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/mvp-joe/scopeline/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-verify fixtures whenever they change",
	Long: `Watch fixture directories (default: the project root) and re-verify every
changed fixture file. Runs until interrupted.`,
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
		return runWatch(cmd.Context(), cmd.OutOrStdout(), a, args, watchDebounce)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before re-verifying")
	rootCmd.AddCommand(watchCmd)
}

// fixtureWatcher creates a watcher over dirs reporting only configured
// fixture files below the project root.
func fixtureWatcher(a *app, dirs []string, debounce time.Duration) (watcher.FileWatcher, error) {
	d, err := fixture.NewDiscovery(a.root, a.cfg.Paths.Fixtures, a.cfg.Paths.Ignore)
	if err != nil {
		return nil, err
	}

	return watcher.NewFileWatcher(dirs, watcher.Options{
		Debounce: debounce,
		Logger:   a.logger,
		Match: func(path string) bool {
			rel, ok := d.Rel(path)
			return ok && d.Matches(rel)
		},
		SkipDir: func(path string) bool {
			rel, ok := d.Rel(path)
			return ok && d.Ignored(rel)
		},
	})
}

// runWatch verifies dirs once, then again for every batch of changed files
// until ctx is done.
func runWatch(ctx context.Context, w io.Writer, a *app, dirs []string, debounce time.Duration) error {
	fw, err := fixtureWatcher(a, dirs, debounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Stop()

	opts := verifyOptions{concurrency: runtime.NumCPU(), quiet: true}
	if _, err := runVerify(ctx, w, io.Discard, a, dirs, opts); err != nil && !errors.Is(err, errVerifyFailed) {
		fmt.Fprintf(w, "%v\n", err)
	}

	err = fw.Start(ctx, func(files []string) {
		existing := changedFixtures(files, a.verifier.Tokens())
		if len(existing) == 0 {
			return
		}

		a.logger.Debug("re-verifying changed fixtures", zap.Strings("files", existing))
		fmt.Fprintf(w, "\n%s: %d changed\n", time.Now().Format("15:04:05"), len(existing))
		if _, err := runVerify(ctx, w, io.Discard, a, existing, opts); err != nil && !errors.Is(err, errVerifyFailed) {
			fmt.Fprintf(w, "%v\n", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Watching %d director%s for fixture changes (Ctrl+C to stop)\n", len(dirs), plural(len(dirs), "y", "ies"))
	<-ctx.Done()
	return nil
}

// changedFixtures keeps the files that still exist and carry marker tokens.
// Deleted files and plain source edited next to fixtures are dropped.
func changedFixtures(files []string, tokens marker.Tokens) []string {
	var out []string
	for _, f := range files {
		if ok, err := fixture.HasMarkers(f, tokens); err == nil && ok {
			out = append(out, f)
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
