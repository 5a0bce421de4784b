package scope

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrParse indicates tree-sitter produced no tree for the source.
var ErrParse = errors.New("failed to parse source")

// Scope is a node that opens a region worth showing as context. Rows and
// columns are 0-based; the end position is exclusive. HeaderEnd is the last
// row of the scope's header.
type Scope struct {
	Kind      string
	StartRow  int
	StartCol  int
	EndRow    int
	EndCol    int
	HeaderEnd int
}

// contains reports whether the point (row, col) falls inside the scope.
func (s Scope) contains(row, col int) bool {
	if row < s.StartRow || (row == s.StartRow && col < s.StartCol) {
		return false
	}
	if row > s.EndRow || (row == s.EndRow && col >= s.EndCol) {
		return false
	}
	return true
}

// Index is the parsed scope layout of one source file. It holds no
// tree-sitter handles and is safe to share between goroutines.
type Index struct {
	Language string
	Lines    []string
	Scopes   []Scope
	HasError bool
}

// Parse parses src with the language's grammar and records every scope node.
func Parse(ctx context.Context, lang *Language, src []byte) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang.Grammar); err != nil {
		return nil, fmt.Errorf("failed to set %s grammar: %w", lang.Name, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, lang.Name)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	idx := &Index{
		Language: lang.Name,
		Lines:    strings.Split(string(src), "\n"),
		HasError: root.HasError(),
	}

	walkTree(root, func(n *sitter.Node) bool {
		rule, ok := lang.Rules[n.Kind()]
		if !ok || !n.IsNamed() {
			return true
		}
		if rule.Requires != "" && n.ChildByFieldName(rule.Requires) == nil {
			return true
		}

		start := n.StartPosition()
		end := n.EndPosition()
		idx.Scopes = append(idx.Scopes, Scope{
			Kind:      n.Kind(),
			StartRow:  int(start.Row),
			StartCol:  int(start.Column),
			EndRow:    int(end.Row),
			EndCol:    int(end.Column),
			HeaderEnd: headerEnd(n, rule, idx.Lines),
		})
		return true
	})

	sort.SliceStable(idx.Scopes, func(i, j int) bool {
		a, b := idx.Scopes[i], idx.Scopes[j]
		if a.StartRow != b.StartRow {
			return a.StartRow < b.StartRow
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		// Wider scope first when two start at the same point.
		if a.EndRow != b.EndRow {
			return a.EndRow > b.EndRow
		}
		return a.EndCol > b.EndCol
	})

	return idx, nil
}

// Enclosing returns the scopes that contain the first non-blank column of
// row and start above it, outermost first.
func (idx *Index) Enclosing(row int) []Scope {
	if row < 0 || row >= len(idx.Lines) {
		return nil
	}
	col := indentWidth(idx.Lines[row])

	var out []Scope
	for _, s := range idx.Scopes {
		if s.StartRow >= row {
			break
		}
		if s.contains(row, col) {
			out = append(out, s)
		}
	}
	return out
}

// headerEnd computes the last header row of n according to rule.
func headerEnd(n *sitter.Node, rule Rule, lines []string) int {
	startRow := int(n.StartPosition().Row)

	if rule.EndField != "" {
		if child := n.ChildByFieldName(rule.EndField); child != nil {
			pos := child.StartPosition()
			row, col := int(pos.Row), int(pos.Column)
			if row > startRow && row < len(lines) && col <= len(lines[row]) &&
				strings.TrimSpace(lines[row][:col]) == "" {
				row--
			}
			if row < startRow {
				row = startRow
			}
			return row
		}
	}

	if rule.EndToken != "" {
		if tok := findTokenChild(n, rule.EndToken); tok != nil {
			return int(tok.StartPosition().Row)
		}
	}

	return startRow
}

// indentWidth returns the byte length of the leading whitespace of line.
func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
