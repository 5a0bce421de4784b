package mcp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler is the signature of an MCP tool handler.
type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolMetrics counts tool calls per tool. All methods are safe for concurrent use.
type ToolMetrics struct {
	mu    sync.RWMutex
	tools map[string]*toolStats
}

type toolStats struct {
	calls        int64
	failures     int64
	total        time.Duration
	lastDuration time.Duration
	lastError    string
}

// ToolSnapshot is an immutable copy of one tool's counters.
type ToolSnapshot struct {
	Tool         string        `json:"tool"`
	Calls        int64         `json:"calls"`
	Failures     int64         `json:"failures"`
	MeanDuration time.Duration `json:"mean_duration_ns"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
}

// NewToolMetrics creates an empty ToolMetrics.
func NewToolMetrics() *ToolMetrics {
	return &ToolMetrics{tools: make(map[string]*toolStats)}
}

// Record adds one call of tool. errMsg is empty for successful calls.
func (m *ToolMetrics) Record(tool string, duration time.Duration, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.tools[tool]
	if !ok {
		st = &toolStats{}
		m.tools[tool] = st
	}
	st.calls++
	st.total += duration
	st.lastDuration = duration
	if errMsg != "" {
		st.failures++
		st.lastError = errMsg
	} else {
		st.lastError = ""
	}
}

// Snapshot returns the counters of every called tool, sorted by name.
func (m *ToolMetrics) Snapshot() []ToolSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ToolSnapshot, 0, len(m.tools))
	for name, st := range m.tools {
		snap := ToolSnapshot{
			Tool:         name,
			Calls:        st.calls,
			Failures:     st.failures,
			LastDuration: st.lastDuration,
			LastError:    st.lastError,
		}
		if st.calls > 0 {
			snap.MeanDuration = st.total / time.Duration(st.calls)
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// instrument wraps h so every call is recorded under tool. A nil receiver
// returns h unchanged.
func (m *ToolMetrics) instrument(tool string, h toolHandler) toolHandler {
	if m == nil {
		return h
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := h(ctx, request)

		errMsg := ""
		switch {
		case err != nil:
			errMsg = err.Error()
		case result != nil && result.IsError:
			errMsg = resultMessage(result)
		}
		m.Record(tool, time.Since(start), errMsg)
		return result, err
	}
}

func resultMessage(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			return text.Text
		}
	}
	return "tool error"
}
