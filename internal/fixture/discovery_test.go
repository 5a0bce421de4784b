package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscovery_IncludeAndIgnore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root,
		"top.rb",
		"test/lang/test.rb",
		"test/lang/test.go",
		"test/lang/README.md",
		"vendor/lib/test.rb",
		".scopeline/cache.rb",
	)

	d, err := NewDiscovery(root, []string{"**/*.rb", "**/*.go"}, []string{"vendor/**"})
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "test", "lang", "test.go"),
		filepath.Join(root, "test", "lang", "test.rb"),
		filepath.Join(root, "top.rb"),
	}, files)
}

func TestDiscovery_Matches(t *testing.T) {
	t.Parallel()

	d, err := NewDiscovery(".", []string{"test/**/*.rb"}, []string{"**/tmp/**"})
	require.NoError(t, err)

	assert.True(t, d.Matches("test/lang/test.rb"))
	assert.False(t, d.Matches("test/lang/test.go"))
	assert.False(t, d.Matches("test/tmp/x.rb"))
}

func TestDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewDiscovery(".", []string{"[unterminated"}, nil)
	assert.Error(t, err)
}

func TestDiscovery_RelAndIgnored(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d, err := NewDiscovery(root, []string{"**/*.rb"}, []string{"node_modules/**"})
	require.NoError(t, err)

	rel, ok := d.Rel(filepath.Join(root, "a", "b.rb"))
	assert.True(t, ok)
	assert.Equal(t, "a/b.rb", rel)

	_, ok = d.Rel(filepath.Join(filepath.Dir(root), "elsewhere.rb"))
	assert.False(t, ok)

	assert.True(t, d.Ignored("node_modules"))
	assert.True(t, d.Ignored("node_modules/x/y.rb"))
	assert.True(t, d.Ignored(".scopeline"))
	assert.False(t, d.Ignored("lib"))
}

func TestExpand(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, "a.rb", "sub/b.rb", "sub/c.md", "d.txt")
	for _, f := range []string{"a.rb", "sub/b.rb"} {
		writeSource(t, filepath.Join(root, filepath.FromSlash(f)), "# {{CURSOR}}\n")
	}

	explicit := filepath.Join(root, "d.txt")
	files, err := Expand([]string{filepath.Join(root, "sub"), explicit, root}, []string{"**/*.rb"}, nil, marker.DefaultTokens())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.rb"),
		explicit,
		filepath.Join(root, "sub", "b.rb"),
	}, files)

	_, err = Expand([]string{filepath.Join(root, "missing")}, nil, nil, marker.DefaultTokens())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpand_SkipsDiscoveredFilesWithoutMarkers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fixturePath := filepath.Join(root, "test", "go", "test.go")
	mainPath := filepath.Join(root, "main.go")
	writeSource(t, fixturePath, "package main\n\nfunc run() { // {{CONTEXT}}\n\t_ = 1 // {{CURSOR}}\n}\n")
	writeSource(t, mainPath, "package main\n\nfunc main() {}\n")

	files, err := Expand([]string{root}, []string{"**/*.go"}, nil, marker.DefaultTokens())
	require.NoError(t, err)
	assert.Equal(t, []string{fixturePath}, files)

	// Named explicitly, a file is kept so verification can report it.
	files, err = Expand([]string{mainPath, root}, []string{"**/*.go"}, nil, marker.DefaultTokens())
	require.NoError(t, err)
	assert.Equal(t, []string{mainPath, fixturePath}, files)

	// Custom tokens decide what counts as a fixture.
	files, err = Expand([]string{root}, []string{"**/*.go"}, nil, marker.Tokens{Cursor: "func main"})
	require.NoError(t, err)
	assert.Equal(t, []string{mainPath}, files)
}

func TestHasMarkers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	withMarker := filepath.Join(dir, "a.rb")
	without := filepath.Join(dir, "b.rb")
	writeSource(t, withMarker, "class A # {{CONTEXT}}\nend\n")
	writeSource(t, without, "class B\nend\n")

	ok, err := HasMarkers(withMarker, marker.DefaultTokens())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasMarkers(without, marker.DefaultTokens())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = HasMarkers(filepath.Join(dir, "missing.rb"), marker.DefaultTokens())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
