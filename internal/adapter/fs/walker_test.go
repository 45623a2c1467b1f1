package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	}
	return root
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	rels := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rels[i] = filepath.ToSlash(rel)
	}
	return rels
}

func TestWalkerIncludes(t *testing.T) {
	root := makeTree(t, "a.txt", "sub/b.md", "sub/c.log", "sub/deep/d.txt")
	w := NewWalker([]string{"**/*.txt", "**/*.md"}, nil)

	paths, err := w.Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.md", "sub/deep/d.txt"}, relPaths(t, root, paths))
}

func TestWalkerExcludes(t *testing.T) {
	root := makeTree(t, "a.txt", "node_modules/pkg/readme.md", "docs/guide.md")
	w := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/node_modules/**"})

	paths, err := w.Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "docs/guide.md"}, relPaths(t, root, paths))
}

func TestWalkerDefaultIncludesEverything(t *testing.T) {
	root := makeTree(t, "a.txt", "b.bin")
	w := NewWalker(nil, nil)

	paths, err := w.Walk(root)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
