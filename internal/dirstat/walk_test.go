package dirstat_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dirclean/internal/dirstat"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
}

func TestScanMeasuresTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 50)
	writeFile(t, filepath.Join(root, "sub", "b.bin"), 100)
	writeFile(t, filepath.Join(root, "sub", "deep", "c.bin"), 30)
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	tree, err := dirstat.Scan(context.Background(), root, dirstat.WalkOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(180), tree.Root.Size)
	assert.Equal(t, int64(3), tree.TotalFiles)
	assert.Equal(t, int64(3), tree.TotalFolders)
	assert.Equal(t, []string{"sub", "a.txt", "empty"}, names(tree.Root.Children))
	assert.Empty(t, tree.Skipped)

	require.Len(t, tree.Files, 3)
	assert.Equal(t, filepath.Join(root, "a.txt"), tree.Files[0].Path)
	assert.Equal(t, ".txt", tree.Files[0].Extension)
}

func TestScanDoesNotFollowSymlinks(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "b.bin"), 100)
	require.NoError(t, os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "link")))

	tree, err := dirstat.Scan(context.Background(), root, dirstat.WalkOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(100), tree.Root.Size)
	assert.Equal(t, int64(1), tree.TotalFiles)

	link := tree.Find(filepath.Join(root, "link"))
	require.NotNil(t, link)
	assert.Equal(t, dirstat.KindSymlink, link.Kind)
	assert.Empty(t, link.Children)
}

func TestScanSkipsUnreadableDirectory(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.txt"), 10)
	writeFile(t, filepath.Join(root, "locked", "secret.txt"), 10)

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	tree, err := dirstat.Scan(context.Background(), root, dirstat.WalkOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10), tree.Root.Size)
	assert.Equal(t, int64(1), tree.TotalFiles)
	require.Len(t, tree.Skipped, 1)
	assert.Equal(t, locked, tree.Skipped[0].Path)
	require.ErrorIs(t, tree.Skipped[0].Err, dirstat.ErrEntryUnreadable)
}

func TestScanExcludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 5)
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "big.js"), 500)

	opts := dirstat.WalkOptions{Excludes: []string{`.*node_modules.*`}}

	tree, err := dirstat.Scan(context.Background(), root, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), tree.Root.Size)
	assert.Nil(t, tree.Find(filepath.Join(root, "node_modules")))
}

func TestScanRejectsInvalidRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	regular := filepath.Join(root, "file.txt")
	writeFile(t, regular, 1)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(root, "nope")},
		{name: "file", path: regular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := dirstat.Scan(context.Background(), tt.path, dirstat.WalkOptions{}, nil)
			require.ErrorIs(t, err, dirstat.ErrInvalidRoot)
		})
	}
}

func TestScanRejectsBadExclude(t *testing.T) {
	t.Parallel()

	_, err := dirstat.Scan(context.Background(), t.TempDir(), dirstat.WalkOptions{Excludes: []string{"("}}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dirstat.ErrInvalidRoot)
}

func TestWalkStopsOnCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b.txt"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dirstat.Scan(ctx, root, dirstat.WalkOptions{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVolumeUsage(t *testing.T) {
	t.Parallel()

	usage, err := dirstat.VolumeUsage(t.TempDir())
	if err != nil {
		require.ErrorIs(t, err, dirstat.ErrDiskUsageUnsupported)

		return
	}

	assert.Positive(t, usage.Total)
	assert.LessOrEqual(t, usage.Free, usage.Total)
	assert.LessOrEqual(t, usage.Used, usage.Total)
}
