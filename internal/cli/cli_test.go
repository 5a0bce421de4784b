package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mvp-joe/scopeline/internal/config"
	"github.com/mvp-joe/scopeline/internal/git"
	"github.com/mvp-joe/scopeline/internal/marker"
	"github.com/mvp-joe/scopeline/internal/scope"
	"github.com/mvp-joe/scopeline/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Test Plan for CLI commands:
// - runContext prints 1-based context lines as text or JSON
// - runContext applies --max-lines/--trim-scope/--threshold and rejects bad values
// - runVerify passes good fixtures, records the run with git metadata and lists it in history
// - runVerify reports failing cases with 1-based lines and returns errVerifyFailed
// - runVerify rejects paths without fixtures
// - runVerify skips plain source found next to fixtures but reports it when named
// - runVerify ignores the configured max_lines so full expectations still match
// - changedFixtures drops deleted files and files without markers
// - the context command binds --line/-l
// - runWatch re-verifies a fixture written after it starts
// - listLanguages lists every registered language
// - newLogger honours the level and --verbose
// - dumpScopes lists the parsed scopes of a file

const rubySource = `module Bar
  class Foo
    def run
      x = 1
    end
  end
end
`

const passingFixture = `# {{TEST}}
module Bar # {{CONTEXT}}
  class Foo # {{CONTEXT}}
    def run # {{CONTEXT}}
      x = 1 # {{CURSOR}}
    end
  end
end
`

const failingFixture = `# {{TEST}}
class Foo # {{CONTEXT}}
  def bar
    # {{CURSOR}}
    1
  end
end
`

func newTestApp(t *testing.T, root string) *app {
	t.Helper()

	a, err := buildApp(root, config.Default(), zap.NewNop())
	require.NoError(t, err)
	a.git = git.NewMockGitOps()
	t.Cleanup(a.Close)
	return a
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestRunContext_Text(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, t.TempDir())
	var out bytes.Buffer

	err := runContext(context.Background(), &out, a.extractor, "bar.rb", []byte(rubySource), contextOptions{line: 4})
	require.NoError(t, err)
	assert.Equal(t, "1: module Bar\n2:   class Foo\n3:     def run\n", out.String())
}

func TestRunContext_JSON(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, t.TempDir())
	var out bytes.Buffer

	err := runContext(context.Background(), &out, a.extractor, "bar.rb", []byte(rubySource), contextOptions{line: 4, json: true})
	require.NoError(t, err)

	var got contextOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "ruby", got.Language)
	assert.Equal(t, 4, got.Line)
	require.Len(t, got.Context, 3)
	assert.Equal(t, contextLine{Line: 3, Kind: "method", Text: "    def run"}, got.Context[2])
}

func TestRunContext_Overrides(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, t.TempDir())
	ctx := context.Background()

	var out bytes.Buffer
	err := runContext(ctx, &out, a.extractor, "bar.rb", []byte(rubySource), contextOptions{
		line:      4,
		maxLines:  intPtr(1),
		trimScope: strPtr(scope.TrimInner),
	})
	require.NoError(t, err)
	assert.Equal(t, "1: module Bar\n", out.String())

	tests := []struct {
		name string
		opts contextOptions
		want string
	}{
		{"line zero", contextOptions{line: 0}, "--line must be at least 1"},
		{"negative max", contextOptions{line: 1, maxLines: intPtr(-1)}, "--max-lines cannot be negative"},
		{"bad trim", contextOptions{line: 1, trimScope: strPtr("up")}, "--trim-scope must be"},
		{"negative threshold", contextOptions{line: 1, threshold: intPtr(-1)}, "--threshold cannot be negative"},
	}
	for _, tt := range tests {
		err := runContext(ctx, &bytes.Buffer{}, a.extractor, "bar.rb", []byte(rubySource), tt.opts)
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
	}

	err = runContext(ctx, &bytes.Buffer{}, a.extractor, "-", []byte(rubySource), contextOptions{line: 1})
	assert.ErrorIs(t, err, scope.ErrUnsupportedLanguage)
}

func TestRunVerify_PassRecordAndHistory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "fixtures/good.rb", passingFixture)
	a := newTestApp(t, root)
	ctx := context.Background()

	var out bytes.Buffer
	summary, err := runVerify(ctx, &out, &bytes.Buffer{}, a, []string{root}, verifyOptions{record: true, concurrency: 2, quiet: true})
	require.NoError(t, err)

	assert.True(t, summary.Passed())
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 1, summary.Cases)
	assert.NotEmpty(t, summary.RunID)
	assert.Contains(t, out.String(), "✓ 1 cases passed in 1 files")
	assert.Contains(t, out.String(), "Recorded run "+summary.RunID)

	s, err := store.Open(a.cfg.DBPath(root))
	require.NoError(t, err)
	defer s.Close()

	var list bytes.Buffer
	require.NoError(t, listRuns(ctx, &list, s, 10))
	assert.Contains(t, list.String(), summary.RunID)
	assert.Contains(t, list.String(), "main")

	var show bytes.Buffer
	require.NoError(t, showRun(ctx, &show, s, summary.RunID))
	assert.Contains(t, show.String(), "Branch main at 0123456789ab")
	assert.Contains(t, show.String(), "fixtures/good.rb")
	assert.Contains(t, show.String(), "ok")

	assert.ErrorIs(t, showRun(ctx, &bytes.Buffer{}, s, "missing"), store.ErrRunNotFound)
}

func TestRunVerify_Failure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "good.rb", passingFixture)
	writeFile(t, root, "bad.rb", failingFixture)
	writeFile(t, root, "broken.rb", "# {{TEST}}\nclass Foo # {{CONTEXT}}\nend\n")
	writeFile(t, root, "plain.rb", "class Plain\nend\n")
	a := newTestApp(t, root)

	var out bytes.Buffer
	summary, err := runVerify(context.Background(), &out, &bytes.Buffer{}, a, []string{root}, verifyOptions{concurrency: 1, quiet: true})
	assert.ErrorIs(t, err, errVerifyFailed)
	require.NotNil(t, summary)

	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 2, summary.FailedFiles)
	assert.Equal(t, 1, summary.FailedCases)

	text := out.String()
	assert.Contains(t, text, "FAIL bad.rb case 1 (cursor line 4)")
	assert.Contains(t, text, "unexpected: 3")
	assert.Contains(t, text, "ERROR broken.rb")
	assert.Contains(t, text, "✗ 1 of 2 cases failed, 2 of 3 files failed")
}

func TestRunVerify_NoFixtures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "README.md", "nothing here")
	a := newTestApp(t, root)

	_, err := runVerify(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, a, []string{root}, verifyOptions{quiet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fixtures found")
}

func TestRunVerify_SkipsPlainSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "lib/foo.rb", rubySource)
	writeFile(t, root, "test/ruby/test.rb", passingFixture)
	a := newTestApp(t, root)
	ctx := context.Background()

	var out bytes.Buffer
	summary, err := runVerify(ctx, &out, &bytes.Buffer{}, a, []string{root}, verifyOptions{concurrency: 2, quiet: true})
	require.NoError(t, err)
	assert.True(t, summary.Passed())
	assert.Equal(t, 1, summary.Files)
	assert.NotContains(t, out.String(), "ERROR")

	out.Reset()
	_, err = runVerify(ctx, &out, &bytes.Buffer{}, a, []string{filepath.Join(root, "lib", "foo.rb")}, verifyOptions{concurrency: 1, quiet: true})
	assert.ErrorIs(t, err, errVerifyFailed)
	assert.Contains(t, out.String(), "ERROR lib/foo.rb")
}

func TestRunVerify_IgnoresMaxLines(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "good.rb", passingFixture)

	cfg := config.Default()
	cfg.Context.MaxLines = 1
	a, err := buildApp(root, cfg, zap.NewNop())
	require.NoError(t, err)
	a.git = git.NewMockGitOps()
	t.Cleanup(a.Close)

	summary, err := runVerify(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, a, []string{root}, verifyOptions{concurrency: 1, quiet: true})
	require.NoError(t, err)
	assert.True(t, summary.Passed())
	assert.Equal(t, 1, summary.Cases)

	// The context command still honours the configured limit.
	var out bytes.Buffer
	require.NoError(t, runContext(context.Background(), &out, a.extractor, "bar.rb", []byte(rubySource), contextOptions{line: 4}))
	assert.Equal(t, "3:     def run\n", out.String())
}

func TestChangedFixtures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fx := writeFile(t, root, "good.rb", passingFixture)
	plain := writeFile(t, root, "foo.rb", rubySource)
	gone := filepath.Join(root, "gone.rb")

	got := changedFixtures([]string{fx, plain, gone}, marker.DefaultTokens())
	assert.Equal(t, []string{fx}, got)
	assert.Empty(t, changedFixtures([]string{plain, gone}, marker.DefaultTokens()))
}

func TestContextCmd_LineFlag(t *testing.T) {
	flag := contextCmd.Flags().Lookup("line")
	require.NotNil(t, flag)
	assert.Equal(t, "l", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestToRecords(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "bad.rb", failingFixture)
	a := newTestApp(t, root)

	reports, err := a.verifier.VerifyAll(context.Background(), []string{filepath.Join(root, "bad.rb"), filepath.Join(root, "gone.rb")}, 1, nil)
	require.NoError(t, err)

	records := toRecords(root, reports)
	require.Len(t, records, 2)
	assert.Equal(t, "bad.rb", records[0].Path)
	assert.Equal(t, []int{1}, records[0].Expected)
	assert.Equal(t, []int{1, 2}, records[0].Actual)
	assert.False(t, records[0].Passed)
	assert.Equal(t, -1, records[1].CaseIndex)
	assert.NotEmpty(t, records[1].Error)
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatch_ReverifiesChangedFixture(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "good.rb", passingFixture)
	a := newTestApp(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, out, a, []string{root}, 50*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching 1 directory")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "✓ 1 cases passed in 1 files")

	writeFile(t, root, "bad.rb", failingFixture)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "FAIL bad.rb")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not return after cancel")
	}
}

func TestListLanguages(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, listLanguages(&out, scope.NewRegistry()))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "LANGUAGE"))
	for _, name := range []string{"go", "ruby", "python", "rust", "c", "java", "php", "typescript", "tsx", "javascript"} {
		assert.Contains(t, text, "\n"+name+" ")
	}
	assert.Contains(t, text, ".rb .rake .gemspec")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, level, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.Equal(t, "warn", level.String())
	_ = logger.Sync()

	_, level, err = newLogger("info", true)
	require.NoError(t, err)
	assert.Equal(t, "debug", level.String())

	_, _, err = newLogger("chatty", false)
	assert.Error(t, err)
}

func TestFormatNumberAndRelPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(1234567))

	root := t.TempDir()
	assert.Equal(t, "a/b.rb", relPath(root, filepath.Join(root, "a", "b.rb")))
	outside := filepath.Join(filepath.Dir(root), "x.rb")
	assert.Equal(t, outside, relPath(root, outside))
}

func TestDumpScopes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, dumpScopes(context.Background(), &out, scope.NewRegistry(), "bar.rb", "", []byte(rubySource)))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "bar.rb: 3 scopes (ruby)\n"), text)
	assert.Contains(t, text, "KIND")
	assert.Contains(t, text, "module Bar")
	assert.Contains(t, text, "def run")
	assert.NotContains(t, text, "warning")

	err := dumpScopes(context.Background(), &out, scope.NewRegistry(), "bar.xyz", "", []byte(rubySource))
	assert.ErrorIs(t, err, scope.ErrUnsupportedLanguage)
}
