package scope

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ErrUnsupportedLanguage indicates a language name or file extension with no grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language couples a tree-sitter grammar with the node kinds that open a scope.
type Language struct {
	Name       string
	Extensions []string
	Grammar    *sitter.Language
	Rules      map[string]Rule
}

// Rule describes how far the header of a scope node reaches.
//
// With EndField set, the header ends where that field's child starts; the
// child's row is dropped when only whitespace precedes it. With EndToken set,
// the header ends on the row of the first anonymous child of that kind.
// Otherwise, or when the field or token is absent, the header is the node's
// first row. Requires names a field the node must carry to count at all.
type Rule struct {
	EndField string
	EndToken string
	Requires string
}

// Registry maps language names and file extensions to languages.
type Registry struct {
	byName map[string]*Language
	byExt  map[string]*Language
}

// NewRegistry creates a registry holding every built-in language.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Language),
		byExt:  make(map[string]*Language),
	}

	r.Register(&Language{
		Name:       "go",
		Extensions: []string{".go"},
		Grammar:    sitter.NewLanguage(golang.Language()),
		Rules:      goRules,
	})
	r.Register(&Language{
		Name:       "ruby",
		Extensions: []string{".rb", ".rake", ".gemspec"},
		Grammar:    sitter.NewLanguage(ruby.Language()),
		Rules:      rubyRules,
	})
	r.Register(&Language{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		Grammar:    sitter.NewLanguage(python.Language()),
		Rules:      pythonRules,
	})
	r.Register(&Language{
		Name:       "rust",
		Extensions: []string{".rs"},
		Grammar:    sitter.NewLanguage(rust.Language()),
		Rules:      rustRules,
	})
	r.Register(&Language{
		Name:       "c",
		Extensions: []string{".c", ".h"},
		Grammar:    sitter.NewLanguage(c.Language()),
		Rules:      cRules,
	})
	r.Register(&Language{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    sitter.NewLanguage(java.Language()),
		Rules:      javaRules,
	})
	r.Register(&Language{
		Name:       "php",
		Extensions: []string{".php"},
		Grammar:    sitter.NewLanguage(php.LanguagePHP()),
		Rules:      phpRules,
	})
	r.Register(&Language{
		Name:       "typescript",
		Extensions: []string{".ts", ".mts", ".cts"},
		Grammar:    sitter.NewLanguage(typescript.LanguageTypescript()),
		Rules:      typescriptRules,
	})
	r.Register(&Language{
		Name:       "tsx",
		Extensions: []string{".tsx", ".jsx"},
		Grammar:    sitter.NewLanguage(typescript.LanguageTSX()),
		Rules:      typescriptRules,
	})
	// JavaScript goes through the TypeScript grammar, which accepts plain JS.
	r.Register(&Language{
		Name:       "javascript",
		Extensions: []string{".js", ".mjs", ".cjs"},
		Grammar:    sitter.NewLanguage(typescript.LanguageTypescript()),
		Rules:      typescriptRules,
	})

	return r
}

// Register adds or replaces a language. Extensions are matched case-insensitively.
func (r *Registry) Register(lang *Language) {
	r.byName[lang.Name] = lang
	for _, ext := range lang.Extensions {
		r.byExt[strings.ToLower(ext)] = lang
	}
}

// Lookup returns the language registered under name.
func (r *Registry) Lookup(name string) (*Language, error) {
	lang, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return lang, nil
}

// ForPath returns the language for a file based on its extension.
func (r *Registry) ForPath(path string) (*Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no grammar for %q", ErrUnsupportedLanguage, filepath.Base(path))
	}
	return lang, nil
}

// Resolve prefers an explicit language name and falls back to the path's extension.
func (r *Registry) Resolve(name, path string) (*Language, error) {
	if name != "" {
		return r.Lookup(name)
	}
	return r.ForPath(path)
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
