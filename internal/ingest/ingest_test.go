package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedExt(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".pdf", "pdf", ".PNG", "jpg", ".JPEG"} {
		require.True(t, AllowedExt(ext), "extension %q", ext)
	}
	for _, ext := range []string{".txt", ".xlsx", "", ".gif"} {
		require.False(t, AllowedExt(ext), "extension %q", ext)
	}
}

func TestHashFileIsStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(a, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same bytes"), 0o644))

	ha, err := HashFile(a)
	require.NoError(t, err)
	hb, err := HashFile(b)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
	require.Len(t, ha, 64)

	require.NoError(t, os.WriteFile(b, []byte("different"), 0o644))
	hb, err = HashFile(b)
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cache", "c.pdf"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "d.jpg"), nil, 0o644))

	got, err := CollectFiles(dir, true)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "sub", "d.jpg"),
	}, got)

	withHidden, err := CollectFiles(dir, false)
	require.NoError(t, err)
	require.Len(t, withHidden, 5)
}
