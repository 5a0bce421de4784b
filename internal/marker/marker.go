// Package marker locates sentinel tokens such as {{CURSOR}} and {{CONTEXT}}
// in annotated source files and groups them into test cases.
package marker

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// Kind identifies which sentinel a marker is.
type Kind int

const (
	KindTest Kind = iota
	KindContext
	KindCursor
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindContext:
		return "context"
	case KindCursor:
		return "cursor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrNoCases indicates a file without any marker
	ErrNoCases = errors.New("no markers found")

	// ErrNoCursor indicates a case without a cursor marker
	ErrNoCursor = errors.New("case has no cursor marker")

	// ErrMultipleCursors indicates a case with more than one cursor marker
	ErrMultipleCursors = errors.New("case has more than one cursor marker")
)

// Tokens holds the literal text of each sentinel.
type Tokens struct {
	Test    string `yaml:"test" mapstructure:"test"`
	Context string `yaml:"context" mapstructure:"context"`
	Cursor  string `yaml:"cursor" mapstructure:"cursor"`
}

// DefaultTokens returns the standard {{TEST}}, {{CONTEXT}} and {{CURSOR}} tokens.
func DefaultTokens() Tokens {
	return Tokens{
		Test:    "{{TEST}}",
		Context: "{{CONTEXT}}",
		Cursor:  "{{CURSOR}}",
	}
}

type kindToken struct {
	kind  Kind
	token string
}

func (t Tokens) byKind() []kindToken {
	return []kindToken{
		{KindTest, t.Test},
		{KindContext, t.Context},
		{KindCursor, t.Cursor},
	}
}

// List returns the non-empty tokens.
func (t Tokens) List() []string {
	var out []string
	for _, kt := range t.byKind() {
		if kt.token != "" {
			out = append(out, kt.token)
		}
	}
	return out
}

// Has reports whether src contains any non-empty token.
func (t Tokens) Has(src []byte) bool {
	for _, tok := range t.List() {
		if bytes.Contains(src, []byte(tok)) {
			return true
		}
	}
	return false
}

// Marker is one token occurrence. Line and Column are 0-based; Offset is the
// byte offset of the token from the start of the source.
type Marker struct {
	Kind   Kind
	Line   int
	Column int
	Offset int
}

// Case is one test section of a fixture. StartLine is inclusive and EndLine
// exclusive. Context rows are ascending and unique.
type Case struct {
	Index     int
	StartLine int
	EndLine   int
	Cursor    int
	Context   []int
}

// Locate scans src line by line and returns every token occurrence in source order.
func Locate(src []byte, tokens Tokens) []Marker {
	var markers []Marker
	offset := 0
	for row, line := range bytes.Split(src, []byte("\n")) {
		var found []Marker
		for _, kt := range tokens.byKind() {
			if kt.token == "" {
				continue
			}
			needle := []byte(kt.token)
			from := 0
			for {
				idx := bytes.Index(line[from:], needle)
				if idx < 0 {
					break
				}
				col := from + idx
				found = append(found, Marker{
					Kind:   kt.kind,
					Line:   row,
					Column: col,
					Offset: offset + col,
				})
				from = col + len(needle)
			}
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Column < found[j].Column })
		markers = append(markers, found...)
		offset += len(line) + 1
	}
	return markers
}

// Split groups markers into cases. Every test marker opens a case that runs
// until the next test marker or the end of the file. Markers above the first
// test marker are ignored. A file without test markers is a single case.
func Split(markers []Marker, lineCount int) ([]Case, error) {
	if len(markers) == 0 {
		return nil, ErrNoCases
	}

	var starts []int
	for _, m := range markers {
		if m.Kind == KindTest {
			starts = append(starts, m.Line)
		}
	}
	if len(starts) == 0 {
		starts = []int{0}
	}

	cases := make([]Case, len(starts))
	for i, start := range starts {
		end := lineCount
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		cases[i] = Case{Index: i, StartLine: start, EndLine: end, Cursor: -1}
	}

	for _, m := range markers {
		if m.Kind == KindTest {
			continue
		}
		i := caseFor(cases, m.Line)
		if i < 0 {
			continue
		}
		c := &cases[i]
		switch m.Kind {
		case KindCursor:
			if c.Cursor >= 0 {
				return nil, fmt.Errorf("case %d (line %d): %w", c.Index, m.Line+1, ErrMultipleCursors)
			}
			c.Cursor = m.Line
		case KindContext:
			if n := len(c.Context); n == 0 || c.Context[n-1] != m.Line {
				c.Context = append(c.Context, m.Line)
			}
		}
	}

	for _, c := range cases {
		if c.Cursor < 0 {
			return nil, fmt.Errorf("case %d (line %d): %w", c.Index, c.StartLine+1, ErrNoCursor)
		}
	}

	return cases, nil
}

// caseFor returns the index of the case that contains line, or -1.
func caseFor(cases []Case, line int) int {
	for i, c := range cases {
		if line >= c.StartLine && line < c.EndLine {
			return i
		}
	}
	return -1
}

// LineCount returns the number of rows in src, counting a trailing
// newline-terminated empty row the way bytes.Split does.
func LineCount(src []byte) int {
	return bytes.Count(src, []byte("\n")) + 1
}
