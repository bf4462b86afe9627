package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := New(OptionsFromConfig(config.Default().Scan))
	require.NoError(t, err)
	return s
}

func TestScan_ManagedFilesNeverReported(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"package.json":             `{"name": "my-devcode"}`,
		".github/workflows/ci.yml": "name: my-devcode\n",
		"README.md":                "# my-devcode\n\nInstall my-devcode with pnpm.\n",
		"docs/usage.md":            "intro\n  see my-devcode  \n",
		"node_modules/x/index.js":  "my-devcode",
		".git/config":              "my-devcode",
		"pnpm-lock.yaml":           "my-devcode",
		"src/index.ts":             "export const x = 1\n",
	})

	got, err := newTestScanner(t).Scan(context.Background(), root, "my-devcode",
		[]string{"package.json", "./.github/workflows/ci.yml"})
	require.NoError(t, err)

	want := []model.Occurrence{
		{Path: "README.md", Line: 1, Snippet: "# my-devcode"},
		{Path: "README.md", Line: 3, Snippet: "Install my-devcode with pnpm."},
		{Path: "docs/usage.md", Line: 2, Snippet: "see my-devcode"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"logo.png":   "\x89PNG\x00my-devcode",
		"latin1.txt": "caf\xe9 my-devcode",
		"ok.txt":     "my-devcode",
	})

	got, err := newTestScanner(t).Scan(context.Background(), root, "my-devcode", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok.txt", got[0].Path)
}

func TestScan_TruncatesSnippets(t *testing.T) {
	root := t.TempDir()
	long := "my-devcode " + strings.Repeat("é", 200)
	writeTree(t, root, map[string]string{"a.txt": long})

	s, err := New(Options{SnippetLength: 20})
	require.NoError(t, err)
	got, err := s.Scan(context.Background(), root, "my-devcode", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "my-devcode "+strings.Repeat("é", 9)+"...", got[0].Snippet)
}

func TestScan_CustomExclusions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"vendor/a.txt":   "my-devcode",
		"notes.draft.md": "my-devcode",
		"keep.md":        "my-devcode",
	})

	s, err := New(Options{ExcludeDirs: []string{"vendor"}, ExcludeFiles: []string{"*.draft.md"}})
	require.NoError(t, err)
	got, err := s.Scan(context.Background(), root, "my-devcode", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep.md", got[0].Path)
}

func TestScan_WalkOrderIsStable(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for _, name := range []string{"c.txt", "a.txt", "b/z.txt", "b/a.txt"} {
		files[name] = "my-devcode\n"
	}
	writeTree(t, root, files)

	s, err := New(Options{Concurrency: 2})
	require.NoError(t, err)
	got, err := s.Scan(context.Background(), root, "my-devcode", nil)
	require.NoError(t, err)

	paths := make([]string, len(got))
	for i, o := range got {
		paths[i] = o.Path
	}
	assert.Equal(t, []string{"a.txt", "b/a.txt", "b/z.txt", "c.txt"}, paths)
}

func TestScan_Errors(t *testing.T) {
	s := newTestScanner(t)

	_, err := s.Scan(context.Background(), t.TempDir(), "", nil)
	assert.Error(t, err, "empty placeholder")

	_, err = s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), "x", nil)
	assert.Error(t, err, "missing root")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x"})
	_, err = s.Scan(ctx, root, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Options{ExcludeFiles: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text\n")))
	assert.False(t, IsBinary([]byte("日本語")))
	assert.True(t, IsBinary([]byte{'a', 0, 'b'}))
	assert.True(t, IsBinary([]byte{0xff, 0xfe}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "exactly10!", n: 10, want: "exactly10!"},
		{in: "this is too long", n: 4, want: "this..."},
		{in: "ünïcödé", n: 3, want: "ünï..."},
		{in: "anything", n: 0, want: "anything"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), tt.in)
	}
}
