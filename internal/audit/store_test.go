package audit_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dirclean/internal/audit"
	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/cleanup"
	"github.com/idelchi/dirclean/internal/dirstat"
)

func candidate(path string, size int64, reasons ...classify.Reason) classify.Candidate {
	return classify.Candidate{
		Entry:   dirstat.Entry{Path: path, Name: filepath.Base(path), Kind: dirstat.KindFile, Size: size},
		Reasons: reasons,
	}
}

func TestStoreRecordsOutcome(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, err := audit.Open(ctx, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	outcome := cleanup.Outcome{
		Deleted: []classify.Candidate{
			candidate("/data/a.tmp", 10, classify.ReasonTemporary),
			candidate("/data/b.iso", 300, classify.ReasonOld, classify.ReasonLarge),
		},
		Failed: []cleanup.Failure{{
			Candidate: candidate("/data/c.log", 5, classify.ReasonTemporary),
			Message:   "permission denied",
			Err:       errors.New("permission denied"),
		}},
		FreedBytes: 310,
	}

	require.NoError(t, store.Record(ctx, "scan-1", "/data", outcome))
	require.NoError(t, store.Record(ctx, "scan-2", "/other", cleanup.Outcome{
		Deleted: []classify.Candidate{candidate("/other/x", 1, classify.ReasonDuplicate)},
	}))

	rows, err := store.List(ctx, "scan-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "/data/a.tmp", rows[0].Path)
	assert.True(t, rows[0].Deleted)
	assert.Equal(t, []classify.Reason{classify.ReasonOld, classify.ReasonLarge}, rows[1].Reasons)
	assert.Equal(t, int64(300), rows[1].Size)
	assert.False(t, rows[2].Deleted)
	assert.Equal(t, "permission denied", rows[2].Error)
	assert.Equal(t, "/data", rows[2].Root)
	assert.False(t, rows[0].At.IsZero())

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStoreReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := audit.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "scan", "/r", cleanup.Outcome{
		Deleted: []classify.Candidate{candidate("/r/f", 1, classify.ReasonOld)},
	}))
	require.NoError(t, store.Close())

	store, err = audit.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	rows, err := store.List(ctx, "scan")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
