package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mvp-joe/scopeline/internal/scope"
	"github.com/spf13/cobra"
)

var (
	contextLineNum   int
	contextLang      string
	contextJSON      bool
	contextMaxLines  int
	contextTrimScope string
	contextThreshold int
)

// contextCmd represents the context command
var contextCmd = &cobra.Command{
	Use:   "context <file>",
	Short: "Print the enclosing scope headers of a line",
	Long: `Print the headers of every scope enclosing a line, outermost first, with
1-based line numbers. Pass "-" as the file to read the source from stdin
(--lang is then required).

Examples:
  scopeline context internal/server.go --line 120
  scopeline context app/models/user.rb --line 42 --max-lines 3 --trim-scope inner
  cat main.py | scopeline context - --lang python --line 10 --json`,
	Args: cobra.ExactArgs(1),
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

		opts := contextOptions{
			line:     contextLineNum,
			language: contextLang,
			json:     contextJSON,
		}
		if cmd.Flags().Changed("max-lines") {
			opts.maxLines = &contextMaxLines
		}
		if cmd.Flags().Changed("trim-scope") {
			opts.trimScope = &contextTrimScope
		}
		if cmd.Flags().Changed("threshold") {
			opts.threshold = &contextThreshold
		}

		var src []byte
		if args[0] == "-" {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			src, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}

		return runContext(cmd.Context(), cmd.OutOrStdout(), a.extractor, args[0], src, opts)
	},
}

func init() {
	contextCmd.Flags().IntVarP(&contextLineNum, "line", "l", 0, "1-based line to show the context of (required)")
	contextCmd.Flags().StringVar(&contextLang, "lang", "", "language name, detected from the extension when omitted")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "print JSON")
	contextCmd.Flags().IntVar(&contextMaxLines, "max-lines", 0, "maximum context lines, 0 = unlimited (overrides config)")
	contextCmd.Flags().StringVar(&contextTrimScope, "trim-scope", scope.TrimOuter, "scopes dropped first when max-lines is hit: outer or inner")
	contextCmd.Flags().IntVar(&contextThreshold, "threshold", scope.DefaultMultilineThreshold, "maximum rows per scope header, 0 = unlimited")
	contextCmd.MarkFlagRequired("line")

	rootCmd.AddCommand(contextCmd)
}

// contextOptions carries the context flags; nil pointers keep the configured value.
type contextOptions struct {
	line      int
	language  string
	json      bool
	maxLines  *int
	trimScope *string
	threshold *int
}

type contextOutput struct {
	Path     string        `json:"path"`
	Language string        `json:"language"`
	Line     int           `json:"line"`
	Context  []contextLine `json:"context"`
}

type contextLine struct {
	Line int    `json:"line"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func runContext(ctx context.Context, w io.Writer, extractor *scope.Extractor, path string, src []byte, opts contextOptions) error {
	if opts.line < 1 {
		return fmt.Errorf("--line must be at least 1, got %d", opts.line)
	}

	if opts.maxLines != nil || opts.trimScope != nil || opts.threshold != nil {
		o := extractor.Options()
		if opts.maxLines != nil {
			if *opts.maxLines < 0 {
				return fmt.Errorf("--max-lines cannot be negative, got %d", *opts.maxLines)
			}
			o.MaxLines = *opts.maxLines
		}
		if opts.trimScope != nil {
			if *opts.trimScope != scope.TrimOuter && *opts.trimScope != scope.TrimInner {
				return fmt.Errorf("--trim-scope must be '%s' or '%s', got '%s'", scope.TrimOuter, scope.TrimInner, *opts.trimScope)
			}
			o.TrimScope = *opts.trimScope
		}
		if opts.threshold != nil {
			if *opts.threshold < 0 {
				return fmt.Errorf("--threshold cannot be negative, got %d", *opts.threshold)
			}
			o.MultilineThreshold = *opts.threshold
		}
		extractor = extractor.WithOptions(o)
	}

	res, err := extractor.Extract(ctx, scope.Request{
		Path:     path,
		Language: opts.language,
		Source:   src,
		Line:     opts.line - 1,
	})
	if err != nil {
		return err
	}

	out := contextOutput{
		Path:     path,
		Language: res.Language,
		Line:     opts.line,
		Context:  []contextLine{},
	}
	i := 0
	for _, r := range res.Ranges {
		for _, row := range r.Rows {
			out.Context = append(out.Context, contextLine{Line: row + 1, Kind: r.Kind, Text: res.Lines[i].Text})
			i++
		}
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	width := len(strconv.Itoa(opts.line))
	for _, l := range out.Context {
		fmt.Fprintf(w, "%*d: %s\n", width, l.Line, l.Text)
	}
	return nil
}
