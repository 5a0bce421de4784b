package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mvp-joe/scopeline/internal/scope"
	"github.com/spf13/cobra"
)

// languagesCmd represents the languages command
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their file extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listLanguages(cmd.OutOrStdout(), scope.NewRegistry())
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func listLanguages(w io.Writer, registry *scope.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS\tSCOPE KINDS")
	for _, name := range registry.Names() {
		lang, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", lang.Name, strings.Join(lang.Extensions, " "), len(lang.Rules))
	}
	return tw.Flush()
}
