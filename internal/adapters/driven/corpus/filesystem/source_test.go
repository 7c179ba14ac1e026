package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSourceList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md", "alpha")
	writeFile(t, root, "notes/beta.txt", "beta")
	writeFile(t, root, "zeta.md", "zeta")
	writeFile(t, root, "image.png", "binary")
	writeFile(t, root, ".hidden/secret.md", "secret")
	writeFile(t, root, ".dotfile.md", "dot")

	src, err := New(root)
	require.NoError(t, err)

	ids, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/alpha.md", "notes/beta.txt", "zeta.md"}, ids)
}

func TestSourceLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md", "alpha content")

	src, err := New(root)
	require.NoError(t, err)

	doc, err := src.Load(context.Background(), "notes/alpha.md")
	require.NoError(t, err)
	assert.Equal(t, "notes/alpha.md", doc.ID)
	assert.Equal(t, "alpha content", doc.Text)
}

func TestSourceLoadMissing(t *testing.T) {
	src, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = src.Load(context.Background(), "nope.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceLoadRejectsEscapingID(t *testing.T) {
	root := t.TempDir()
	src, err := New(root)
	require.NoError(t, err)

	for _, id := range []string{"../outside.md", "/etc/passwd", "a/../../b.md"} {
		_, err := src.Load(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrNotFound, id)
	}
}

func TestSourceCustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.adoc", "asciidoc")
	writeFile(t, root, "doc.md", "markdown")

	src, err := New(root, WithExtensions(".adoc"))
	require.NoError(t, err)

	ids, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.adoc"}, ids)
}

func TestSourceIDForPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/alpha.md", "alpha")

	src, err := New(root)
	require.NoError(t, err)

	id, ok := src.IDForPath(filepath.Join(root, "notes", "alpha.md"))
	require.True(t, ok)
	assert.Equal(t, "notes/alpha.md", id)

	_, ok = src.IDForPath(filepath.Join(root, "..", "outside.md"))
	assert.False(t, ok)
}

func TestSourceRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
