package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcputils "github.com/mvp-joe/scopeline/internal/mcp-utils"
)

// contextArgs are the scope_context arguments. Pointers distinguish absent
// arguments from zero values.
type contextArgs struct {
	Path      string  `json:"path"`
	Line      *int    `json:"line"`
	Language  string  `json:"language"`
	Source    *string `json:"source"`
	MaxLines  *int    `json:"max_lines"`
	TrimScope string  `json:"trim_scope"`
}

// verifyArgs are the scope_verify arguments.
type verifyArgs struct {
	Path string `json:"path"`
}

// bindArgs decodes the request arguments into target.
func bindArgs(request mcp.CallToolRequest, target interface{}) error {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid arguments format")
	}
	if err := mcputils.BindArguments(argsMap, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requireString(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s parameter is required", key)
	}
	return nil
}

// requireLine checks a required 1-based line number.
func requireLine(key string, line *int) (int, error) {
	if line == nil {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	if *line < 1 {
		return 0, fmt.Errorf("%s must be at least 1, got %d", key, *line)
	}
	return *line, nil
}
