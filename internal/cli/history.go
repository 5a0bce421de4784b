package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mvp-joe/scopeline/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded verification runs",
	Long: `List the runs stored with "scopeline verify --record", newest first, or show
the case results of one run with --run.`,
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

		s, err := store.Open(a.cfg.DBPath(root))
		if err != nil {
			return err
		}
		defer s.Close()

		if historyRun != "" {
			return showRun(cmd.Context(), cmd.OutOrStdout(), s, historyRun)
		}
		return listRuns(cmd.Context(), cmd.OutOrStdout(), s, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list, 0 = all")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the case results of one run")
	rootCmd.AddCommand(historyCmd)
}

func listRuns(ctx context.Context, w io.Writer, s *store.Store, limit int) error {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs. Use 'scopeline verify --record' to record one.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tBRANCH\tFILES\tCASES\tFAILURES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			orDash(r.Branch),
			r.Files, r.Cases, r.Failures)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, w io.Writer, s *store.Store, id string) error {
	run, records, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.StartedAt.Local().Format(time.DateTime))
	if run.Commit != "" {
		fmt.Fprintf(w, "Branch %s at %s\n", orDash(run.Branch), shortHash(run.Commit))
	}
	fmt.Fprintf(w, "%d files, %d cases, %d failures\n\n", run.Files, run.Cases, run.Failures)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tFILE\tCASE\tCURSOR\tDETAIL")
	for _, r := range records {
		switch {
		case r.Error != "":
			fmt.Fprintf(tw, "ERROR\t%s\t-\t-\t%s\n", r.Path, r.Error)
		case r.Passed:
			fmt.Fprintf(tw, "ok\t%s\t%d\t%d\t\n", r.Path, r.CaseIndex+1, r.Cursor+1)
		default:
			missing, unexpected := diffStored(r.Expected, r.Actual)
			fmt.Fprintf(tw, "FAIL\t%s\t%d\t%d\tmissing [%s] unexpected [%s]\n",
				r.Path, r.CaseIndex+1, r.Cursor+1, joinLines(missing), joinLines(unexpected))
		}
	}
	return tw.Flush()
}

// diffStored recomputes the row differences of a stored case.
func diffStored(expected, actual []int) (missing, unexpected []int) {
	inActual := make(map[int]bool, len(actual))
	for _, r := range actual {
		inActual[r] = true
	}
	inExpected := make(map[int]bool, len(expected))
	for _, r := range expected {
		inExpected[r] = true
		if !inActual[r] {
			missing = append(missing, r)
		}
	}
	for _, r := range actual {
		if !inExpected[r] {
			unexpected = append(unexpected, r)
		}
	}
	return missing, unexpected
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
