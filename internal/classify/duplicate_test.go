package classify_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/dirstat"
)

// writeEntry writes content to root/rel and returns its entry.
func writeEntry(t *testing.T, root, rel string, content []byte) dirstat.Entry {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)

	return dirstat.NewEntry(path, info)
}

func TestDuplicatesGroupsIdenticalContent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	same := []byte("the same bytes everywhere")
	other := bytes.Repeat([]byte("x"), len(same))

	files := []dirstat.Entry{
		writeEntry(t, root, "a/one.txt", same),
		writeEntry(t, root, "b/two.txt", same),
		writeEntry(t, root, "c/three.txt", same),
		writeEntry(t, root, "d/same-size.txt", other),
		writeEntry(t, root, "e/unique.txt", []byte("short")),
	}

	result := apply(t, classify.Duplicates(2, nil), files...)

	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	assert.Equal(t, int64(len(same)), group.Size)
	assert.Len(t, group.Fingerprint, 64)
	assert.Equal(t, paths(files[:3]), paths(group.Entries))
	assert.Equal(t, files[0].Path, group.Kept().Path)
	assert.Equal(t, paths(files[1:3]), paths(group.Redundant()))
	assert.Equal(t, paths(files[:3]), paths(result.Entries))
	assert.Empty(t, result.Skipped)
}

func TestDuplicatesConfirmsBeyondHead(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	first := bytes.Repeat([]byte{'a'}, 8<<10)
	second := bytes.Clone(first)
	second[len(second)-1] = 'b'

	result := apply(t, classify.Duplicates(4, nil),
		writeEntry(t, root, "first.bin", first),
		writeEntry(t, root, "second.bin", second),
	)

	assert.Empty(t, result.Groups)
	assert.Empty(t, result.Entries)
}

func TestDuplicatesSeparatesGroups(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	result := apply(t, classify.Duplicates(4, nil),
		writeEntry(t, root, "a1", []byte("alpha")),
		writeEntry(t, root, "b1", []byte("bravo")),
		writeEntry(t, root, "a2", []byte("alpha")),
		writeEntry(t, root, "b2", []byte("bravo")),
	)

	require.Len(t, result.Groups, 2)

	for _, g := range result.Groups {
		assert.Len(t, g.Entries, 2)
	}

	assert.Equal(t, filepath.Join(root, "a1"), result.Groups[0].Kept().Path)
	assert.Equal(t, filepath.Join(root, "b1"), result.Groups[1].Kept().Path)
}

func TestDuplicatesIgnoresEmptyFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	result := apply(t, classify.Duplicates(1, nil),
		writeEntry(t, root, "empty1", nil),
		writeEntry(t, root, "empty2", nil),
	)

	assert.Empty(t, result.Groups)
}

func TestDuplicatesSkipsUnreadableFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := []byte("duplicate me")

	kept := writeEntry(t, root, "kept.txt", content)
	gone := writeEntry(t, root, "gone.txt", content)
	require.NoError(t, os.Remove(gone.Path))

	result := apply(t, classify.Duplicates(2, nil), kept, gone)

	assert.Empty(t, result.Groups)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, gone.Path, result.Skipped[0].Path)
	assert.Equal(t, dirstat.OpHash, result.Skipped[0].Op)
	require.ErrorIs(t, result.Skipped[0].Err, dirstat.ErrEntryUnreadable)
}

func TestDuplicatesSkipsFilesChangedSinceScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	a := writeEntry(t, root, "a.txt", []byte("twelve bytes"))
	b := writeEntry(t, root, "b.txt", []byte("twelve bytes"))
	a.Size, b.Size = 10, 10

	result := apply(t, classify.Duplicates(2, nil), a, b)

	assert.Empty(t, result.Groups)
	assert.Len(t, result.Skipped, 2)
}

func TestDuplicatesStopsOnCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := []dirstat.Entry{
		writeEntry(t, root, "a", []byte("same")),
		writeEntry(t, root, "b", []byte("same")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := classify.Duplicates(1, nil).Apply(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClassifierRunsAfterScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEntry(t, root, "x/report.pdf", []byte("pdf"))
	writeEntry(t, root, "y/report.pdf", []byte("pdf"))
	writeEntry(t, root, "debug.log", []byte("log line"))

	tree, err := dirstat.Scan(context.Background(), root, dirstat.WalkOptions{}, nil)
	require.NoError(t, err)

	policy := classify.DefaultPolicy()
	policy.Now = func() time.Time { return time.Now() }

	classifier, err := classify.New(policy, nil)
	require.NoError(t, err)

	results, err := classifier.Classify(context.Background(), tree.Files)
	require.NoError(t, err)

	candidates := classify.Consolidate(results...)
	require.Len(t, candidates, 2)

	assert.Equal(t, filepath.Join(root, "debug.log"), candidates[0].Path)
	assert.Equal(t, []classify.Reason{classify.ReasonTemporary}, candidates[0].Reasons)
	assert.Equal(t, filepath.Join(root, "y", "report.pdf"), candidates[1].Path)
	assert.Equal(t, []classify.Reason{classify.ReasonDuplicate}, candidates[1].Reasons)
}
