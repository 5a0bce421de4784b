package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/scopeline/internal/marker"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery finds fixture files below a root with glob include and ignore rules.
type Discovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
}

// NewDiscovery compiles the include and ignore patterns. Patterns are matched
// against slash-separated paths relative to rootDir.
func NewDiscovery(rootDir string, include, ignore []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}

	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid fixture pattern %q: %w", pattern, err)
		}
		d.includes = append(d.includes, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// Discover walks the root and returns matching files, sorted.
func (d *Discovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}

		if d.matchesAnyPattern(relPath, d.includes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a path relative to the root is a fixture.
func (d *Discovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !d.shouldIgnore(relPath) && d.matchesAnyPattern(relPath, d.includes)
}

// Ignored reports whether a path relative to the root is excluded, including
// paths below an ignored directory pattern.
func (d *Discovery) Ignored(relPath string) bool {
	return d.shouldIgnore(filepath.ToSlash(relPath))
}

// Rel returns path relative to the discovery root, slash-separated. ok is
// false for paths outside the root.
func (d *Discovery) Rel(path string) (rel string, ok bool) {
	r, err := filepath.Rel(d.rootDir, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if strings.HasPrefix(relPath, ".scopeline/") || relPath == ".scopeline" {
		return true
	}

	if d.matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return d.matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (d *Discovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Let "**/x" also match at the root, as users expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}

// Expand turns a mix of files and directories into a sorted, de-duplicated
// list of fixture files. Files are kept as given; directories are searched
// with the include and ignore patterns, and discovered files containing none
// of tokens are skipped.
func Expand(paths, include, ignore []string, tokens marker.Tokens) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			continue
		}

		d, err := NewDiscovery(p, include, ignore)
		if err != nil {
			return nil, err
		}
		found, err := d.Discover()
		if err != nil {
			return nil, fmt.Errorf("failed to discover fixtures in %s: %w", p, err)
		}
		for _, f := range found {
			if seen[f] {
				continue
			}
			ok, err := HasMarkers(f, tokens)
			if err != nil {
				return nil, err
			}
			if ok {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// HasMarkers reports whether the file at path contains any of tokens.
func HasMarkers(path string, tokens marker.Tokens) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return tokens.Has(src), nil
}
