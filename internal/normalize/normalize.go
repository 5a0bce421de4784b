// Package normalize shapes extracted context rows and text before they are
// displayed or compared: blank-row trimming, blank-run collapsing and
// removal of marker comments.
package normalize

import (
	"regexp"
	"strings"
)

// Rules declares which normalizations apply.
type Rules struct {
	// TrimTrailingBlank drops whitespace-only rows at the end of each range.
	TrimTrailingBlank bool `yaml:"trim_trailing_blank" mapstructure:"trim_trailing_blank"`

	// CollapseBlank keeps only the first row of every run of blank rows.
	CollapseBlank bool `yaml:"collapse_blank" mapstructure:"collapse_blank"`

	// StripMarkers removes marker comments from row text.
	StripMarkers bool `yaml:"strip_markers" mapstructure:"strip_markers"`

	// Tokens are the marker tokens removed by StripMarkers.
	Tokens []string `yaml:"-" mapstructure:"-"`
}

// DefaultRules trims trailing blank rows and strips markers.
func DefaultRules(tokens []string) Rules {
	return Rules{
		TrimTrailingBlank: true,
		CollapseBlank:     false,
		StripMarkers:      true,
		Tokens:            tokens,
	}
}

// Normalizer applies Rules. The zero value applies no rule.
type Normalizer struct {
	rules Rules
}

// New creates a Normalizer for the given rules.
func New(rules Rules) *Normalizer {
	return &Normalizer{rules: rules}
}

// Rules returns the rules in effect.
func (n *Normalizer) Rules() Rules {
	return n.rules
}

// Rows returns the rows of [start, end] worth keeping. lines is the whole
// source split on newlines; rows outside it are dropped. The result is
// empty when nothing survives.
func (n *Normalizer) Rows(start, end int, lines []string) []int {
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return nil
	}

	if n.rules.TrimTrailingBlank {
		for end >= start && IsBlank(n.Text(lines[end])) {
			end--
		}
		if end < start {
			return nil
		}
	}

	rows := make([]int, 0, end-start+1)
	prevBlank := false
	for row := start; row <= end; row++ {
		blank := IsBlank(n.Text(lines[row]))
		if n.rules.CollapseBlank && blank && prevBlank {
			continue
		}
		rows = append(rows, row)
		prevBlank = blank
	}
	return rows
}

// Text applies the text rules to a single row.
func (n *Normalizer) Text(line string) string {
	if n.rules.StripMarkers && len(n.rules.Tokens) > 0 {
		return StripComment(line, n.rules.Tokens)
	}
	return line
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

var (
	emptyBlockComment = regexp.MustCompile(`/\*\s*\*/`)
	trailingComment   = regexp.MustCompile(`\s*(#|//|--)\s*$`)
)

// StripComment removes every token in tokens from line, then drops a comment
// opener left dangling at the end of the line and trailing whitespace.
// Lines that contain none of the tokens are returned unchanged.
func StripComment(line string, tokens []string) string {
	found := false
	for _, tok := range tokens {
		if tok != "" && strings.Contains(line, tok) {
			line = strings.ReplaceAll(line, tok, "")
			found = true
		}
	}
	if !found {
		return line
	}

	line = emptyBlockComment.ReplaceAllString(line, "")
	line = trailingComment.ReplaceAllString(line, "")
	return strings.TrimRight(line, " \t")
}
