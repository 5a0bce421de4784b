package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/scopeline/internal/fixture"
)

// VerifyConfig tells scope_verify how to search directories. Discovered files
// without any of the verifier's marker tokens are skipped.
type VerifyConfig struct {
	Include     []string
	Ignore      []string
	Concurrency int
}

// AddScopeVerifyTool registers the scope_verify tool with an MCP server.
func AddScopeVerifyTool(s *server.MCPServer, verifier *fixture.Verifier, cfg VerifyConfig, metrics *ToolMetrics) {
	tool := mcp.NewTool(
		"scope_verify",
		mcp.WithDescription(`Checks annotated fixture files against the context extractor.

Fixtures mark test cases with {{TEST}}, expected context rows with {{CONTEXT}}
and the cursor with {{CURSOR}} comments. Pass a file or a directory; failing
cases list the missing and unexpected 1-based lines.`),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Fixture file or directory")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, metrics.instrument(tool.Name, createVerifyHandler(verifier, cfg)))
}

// VerifyResponse is the JSON returned by scope_verify.
type VerifyResponse struct {
	Files    []FileOutcome  `json:"files"`
	Cases    int            `json:"cases"`
	Failures int            `json:"failures"`
	Passed   bool           `json:"passed"`
	Metadata ResponseTiming `json:"metadata"`
}

// FileOutcome summarizes one fixture file.
type FileOutcome struct {
	Path     string        `json:"path"`
	Language string        `json:"language,omitempty"`
	Error    string        `json:"error,omitempty"`
	Cases    int           `json:"cases"`
	Failures []CaseOutcome `json:"failures,omitempty"`
}

// CaseOutcome describes a failing case with 1-based lines.
type CaseOutcome struct {
	Case       int   `json:"case"`
	Cursor     int   `json:"cursor"`
	Missing    []int `json:"missing,omitempty"`
	Unexpected []int `json:"unexpected,omitempty"`
}

func createVerifyHandler(verifier *fixture.Verifier, cfg VerifyConfig) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		var args verifyArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := requireString("path", args.Path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path := args.Path

		files, err := fixture.Expand([]string{path}, cfg.Include, cfg.Ignore, verifier.Tokens())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to find fixtures: %v", err)), nil
		}
		if len(files) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no fixtures found in %s", path)), nil
		}

		reports, err := verifier.VerifyAll(ctx, files, cfg.Concurrency, nil)
		if err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}

		response := summarize(reports)
		response.Metadata = ResponseTiming{TookMs: int(time.Since(startTime).Milliseconds())}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func summarize(reports []*fixture.Report) *VerifyResponse {
	response := &VerifyResponse{Files: []FileOutcome{}, Passed: true}

	for _, r := range reports {
		outcome := FileOutcome{Path: r.Path, Language: r.Language, Cases: len(r.Cases)}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
			response.Failures++
		}
		for _, c := range r.Failures() {
			outcome.Failures = append(outcome.Failures, CaseOutcome{
				Case:       c.Case.Index,
				Cursor:     c.Case.Cursor + 1,
				Missing:    oneBased(c.Missing),
				Unexpected: oneBased(c.Unexpected),
			})
			response.Failures++
		}
		response.Cases += len(r.Cases)
		response.Files = append(response.Files, outcome)
	}

	response.Passed = response.Failures == 0
	return response
}

func oneBased(rows []int) []int {
	if len(rows) == 0 {
		return nil
	}
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r + 1
	}
	return out
}
