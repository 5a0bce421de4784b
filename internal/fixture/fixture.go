// Package fixture loads marker-annotated sample files and checks the scope
// extractor against them.
package fixture

import (
	"fmt"
	"os"

	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/mvp-joe/scopeline/internal/scope"
)

// Fixture is a sample source file split into test cases.
type Fixture struct {
	Path     string
	Language string
	Source   []byte
	Cases    []marker.Case
}

// Load reads the file at path, detects its language and splits it into cases.
func Load(path string, registry *scope.Registry, tokens marker.Tokens) (*Fixture, error) {
	lang, err := registry.ForPath(path)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	return Parse(path, lang.Name, src, tokens)
}

// Parse splits already loaded source into cases.
func Parse(path, language string, src []byte, tokens marker.Tokens) (*Fixture, error) {
	cases, err := marker.Split(marker.Locate(src, tokens), marker.LineCount(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Fixture{
		Path:     path,
		Language: language,
		Source:   src,
		Cases:    cases,
	}, nil
}
