package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/scopeline/internal/scope"
)

// AddScopeContextTool registers the scope_context tool with an MCP server.
// metrics may be nil.
func AddScopeContextTool(s *server.MCPServer, extractor *scope.Extractor, metrics *ToolMetrics) {
	tool := mcp.NewTool(
		"scope_context",
		mcp.WithDescription(`Returns the enclosing scope headers of a line: the signatures of the
functions, classes, blocks and control statements that contain it, outermost
first. Useful to see "where am I" in a large file without reading all of it.

Line numbers are 1-based in both the request and the response.`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the source file")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line to compute the context for")),
		mcp.WithString("language",
			mcp.Description("Language name; detected from the file extension when omitted")),
		mcp.WithString("source",
			mcp.Description("File contents to use instead of reading path (e.g. unsaved editor buffer)")),
		mcp.WithNumber("max_lines",
			mcp.Description("Maximum number of context lines (0 = unlimited)")),
		mcp.WithString("trim_scope",
			mcp.Description("Which scopes to drop first when max_lines is hit: outer or inner")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, metrics.instrument(tool.Name, createContextHandler(extractor)))
}

// ContextResponse is the JSON returned by scope_context.
type ContextResponse struct {
	Path     string         `json:"path"`
	Language string         `json:"language"`
	Line     int            `json:"line"`
	Lines    []ContextLine  `json:"lines"`
	Metadata ResponseTiming `json:"metadata"`
}

// ContextLine is one context row with a 1-based line number.
type ContextLine struct {
	Line int    `json:"line"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// ResponseTiming carries request timing.
type ResponseTiming struct {
	TookMs int `json:"took_ms"`
}

func createContextHandler(extractor *scope.Extractor) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		var args contextArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := requireString("path", args.Path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		line, err := requireLine("line", args.Line)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ex, err := withRequestOptions(extractor, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var src []byte
		if args.Source != nil {
			src = []byte(*args.Source)
		} else {
			src, err = os.ReadFile(args.Path)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", args.Path, err)), nil
			}
		}

		res, err := ex.Extract(ctx, scope.Request{
			Path:     args.Path,
			Language: args.Language,
			Source:   src,
			Line:     line - 1,
		})
		if err != nil {
			if isUserError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("context extraction failed: %w", err)
		}

		response := &ContextResponse{
			Path:     args.Path,
			Language: res.Language,
			Line:     line,
			Lines:    toContextLines(res),
			Metadata: ResponseTiming{TookMs: int(time.Since(startTime).Milliseconds())},
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// withRequestOptions applies the optional max_lines and trim_scope arguments.
func withRequestOptions(extractor *scope.Extractor, args contextArgs) (*scope.Extractor, error) {
	if args.MaxLines == nil && args.TrimScope == "" {
		return extractor, nil
	}

	opts := extractor.Options()
	if args.MaxLines != nil {
		if *args.MaxLines < 0 {
			return nil, fmt.Errorf("max_lines cannot be negative, got %d", *args.MaxLines)
		}
		opts.MaxLines = *args.MaxLines
	}
	if args.TrimScope != "" {
		trim := strings.ToLower(args.TrimScope)
		if trim != scope.TrimOuter && trim != scope.TrimInner {
			return nil, fmt.Errorf("trim_scope must be '%s' or '%s', got '%s'", scope.TrimOuter, scope.TrimInner, trim)
		}
		opts.TrimScope = trim
	}
	return extractor.WithOptions(opts), nil
}

func toContextLines(res *scope.Result) []ContextLine {
	lines := make([]ContextLine, 0, len(res.Lines))
	for _, r := range res.Ranges {
		for _, row := range r.Rows {
			lines = append(lines, ContextLine{Line: row + 1, Kind: r.Kind})
		}
	}
	for i := range lines {
		lines[i].Text = res.Lines[i].Text
	}
	return lines
}

// isUserError reports errors caused by the request rather than the server.
func isUserError(err error) bool {
	return errors.Is(err, scope.ErrUnsupportedLanguage) ||
		errors.Is(err, scope.ErrLineOutOfRange)
}
