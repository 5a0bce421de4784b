package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mvp-joe/scopeline/internal/scope"
	"github.com/spf13/cobra"
)

var scopesLang string

// scopesCmd represents the scopes command
var scopesCmd = &cobra.Command{
	Use:   "scopes <file>",
	Short: "Dump every scope the parser finds in a file",
	Long: `Print the scope nodes recognized in a file with their 1-based line spans and
header ends. Useful when writing fixtures or tuning a language's rules.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return dumpScopes(cmd.Context(), cmd.OutOrStdout(), scope.NewRegistry(), args[0], scopesLang, src)
	},
}

func init() {
	scopesCmd.Flags().StringVar(&scopesLang, "lang", "", "language name (default: detect from extension)")
	rootCmd.AddCommand(scopesCmd)
}

func dumpScopes(ctx context.Context, w io.Writer, registry *scope.Registry, path, language string, src []byte) error {
	lang, err := registry.Resolve(language, path)
	if err != nil {
		return err
	}
	idx, err := scope.Parse(ctx, lang, src)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %d scopes (%s)\n", path, len(idx.Scopes), lang.Name)
	if idx.HasError {
		fmt.Fprintln(w, "warning: the syntax tree contains errors")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLINES\tHEADER\tTEXT")
	for _, s := range idx.Scopes {
		text := ""
		if s.StartRow < len(idx.Lines) {
			text = idx.Lines[s.StartRow]
		}
		fmt.Fprintf(tw, "%s\t%d-%d\t%d\t%s\n", s.Kind, s.StartRow+1, s.EndRow+1, s.HeaderEnd+1, text)
	}
	return tw.Flush()
}
