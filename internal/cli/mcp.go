package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mvp-joe/scopeline/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server exposing scope context to coding assistants",
	Long: `Start the Model Context Protocol (MCP) server so LLM-powered coding assistants
can ask for the enclosing scopes of a line and verify fixtures.

The MCP server:
- Provides the scope_context tool (path, line, language?, source?)
- Provides the scope_verify tool (path)
- Communicates via stdio (standard MCP transport)

Example:
  scopeline mcp`,
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

		fmt.Fprintf(os.Stderr, "Scopeline MCP Server %s\n", Version)
		fmt.Fprintf(os.Stderr, "Project root: %s\n\n", root)

		server := mcp.NewServer(a.extractor, a.verifier, mcp.VerifyConfig{
			Include:     a.cfg.Paths.Fixtures,
			Ignore:      a.cfg.Paths.Ignore,
			Concurrency: runtime.NumCPU(),
		}, Version, a.logger)

		if err := server.Serve(cmd.Context()); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
