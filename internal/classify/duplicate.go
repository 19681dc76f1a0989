package classify

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/dirclean/internal/dirstat"
)

const (
	// headBytes is how much of each file the pre-filter hash reads.
	headBytes = 4 << 10
	// chunkBytes is the read buffer for full-content hashing.
	chunkBytes = 64 << 10
)

// errChanged is reported when a file's size no longer matches the scan.
var errChanged = errors.New("file changed during scan")

// DuplicateGroup is a set of files with identical content.
type DuplicateGroup struct {
	// Fingerprint is the hex SHA-256 of the content.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	// Size is the size of each member in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Entries are the members in first-seen order. The first one is kept.
	Entries []dirstat.Entry `json:"entries" yaml:"entries"`
}

// Kept returns the member that stays on disk.
func (g DuplicateGroup) Kept() dirstat.Entry {
	return g.Entries[0]
}

// Redundant returns the members beyond the first.
func (g DuplicateGroup) Redundant() []dirstat.Entry {
	return g.Entries[1:]
}

// duplicates finds files with identical content.
type duplicates struct {
	workers int
	log     *slog.Logger
}

// Duplicates returns the duplicate-content rule.
//
// Files are bucketed by size, then by an xxh3 hash of their first 4 KiB, and
// only then confirmed with a SHA-256 of their full content. Two files are
// duplicates only if both size and fingerprint match. Empty files are never
// grouped. At most workers files are hashed at once.
//
// First-seen order follows the order of files (path order for a scan).
func Duplicates(workers int, log *slog.Logger) Rule {
	if workers <= 0 {
		workers = 1
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return duplicates{workers: workers, log: log}
}

func (d duplicates) Reason() Reason { return ReasonDuplicate }

func (d duplicates) Apply(ctx context.Context, files []dirstat.Entry) (Result, error) {
	result := Result{Reason: ReasonDuplicate}

	items := make([]item, 0, len(files))

	for i, f := range files {
		if f.IsFile() && f.Size > 0 {
			items = append(items, item{entry: f, index: i})
		}
	}

	bySize := bucket(items, func(it item) int64 { return it.entry.Size })

	// Pre-filter on the first bytes.
	heads, skipped, err := hashEach(ctx, d.workers, flatten(bySize), headHash)
	if err != nil {
		return result, err
	}

	result.Skipped = append(result.Skipped, skipped...)

	type headKey struct {
		size int64
		head uint64
	}

	byHead := bucket(heads, func(h hashed[uint64]) headKey {
		return headKey{size: h.entry.Size, head: h.sum}
	})

	// Confirm on the full content.
	sums, skipped, err := hashEach(ctx, d.workers, itemsOf(flatten(byHead)), fullHash)
	if err != nil {
		return result, err
	}

	result.Skipped = append(result.Skipped, skipped...)

	type sumKey struct {
		size int64
		sum  string
	}

	byContent := bucket(sums, func(h hashed[string]) sumKey {
		return sumKey{size: h.entry.Size, sum: h.sum}
	})

	for _, members := range byContent {
		result.Groups = append(result.Groups, DuplicateGroup{
			Fingerprint: members[0].sum,
			Size:        members[0].entry.Size,
			Entries:     entriesOf(itemsOf(members)),
		})
	}

	slices.SortFunc(result.Groups, func(a, b DuplicateGroup) int {
		return cmp.Compare(a.Kept().Path, b.Kept().Path)
	})

	for _, group := range result.Groups {
		result.Entries = append(result.Entries, group.Entries...)
	}

	for _, s := range result.Skipped {
		d.log.Debug("skipping file for duplicate detection", "path", s.Path, "error", s.Message)
	}

	return result, nil
}

// item is a file with its position in the rule's input, which defines
// first-seen order.
type item struct {
	entry dirstat.Entry
	index int
}

// hashed pairs an item with a hash of its content.
type hashed[T comparable] struct {
	item

	sum T
}

// bucket groups values by key, keeping input order inside each bucket and
// dropping buckets with fewer than two members. Buckets are returned in order
// of their first member.
func bucket[T any, K comparable](values []T, key func(T) K) [][]T {
	index := make(map[K]int)

	var buckets [][]T

	for _, v := range values {
		k := key(v)

		i, seen := index[k]
		if !seen {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, nil)
		}

		buckets[i] = append(buckets[i], v)
	}

	return slices.DeleteFunc(buckets, func(b []T) bool { return len(b) < 2 })
}

// flatten concatenates buckets.
func flatten[T any](buckets [][]T) []T {
	var out []T
	for _, b := range buckets {
		out = append(out, b...)
	}

	return out
}

func itemsOf[T comparable](values []hashed[T]) []item {
	out := make([]item, len(values))
	for i, v := range values {
		out[i] = v.item
	}

	return out
}

// entriesOf returns the entries of items in first-seen order.
func entriesOf(items []item) []dirstat.Entry {
	slices.SortStableFunc(items, func(a, b item) int { return cmp.Compare(a.index, b.index) })

	out := make([]dirstat.Entry, len(items))
	for i, it := range items {
		out[i] = it.entry
	}

	return out
}

// hashEach hashes every item on a bounded worker pool. Files that fail to
// hash are returned as skipped entries instead of results.
func hashEach[T comparable](
	ctx context.Context,
	workers int,
	items []item,
	hash func(dirstat.Entry) (T, error),
) ([]hashed[T], []dirstat.SkippedEntry, error) {
	sums := make([]T, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sums[i], errs[i] = hash(it.entry)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		out     = make([]hashed[T], 0, len(items))
		skipped []dirstat.SkippedEntry
	)

	for i, it := range items {
		if errs[i] != nil {
			skipped = append(skipped, dirstat.Skip(dirstat.OpHash, it.entry.Path, errs[i]))

			continue
		}

		out = append(out, hashed[T]{item: it, sum: sums[i]})
	}

	return out, skipped, nil
}

// headHash hashes the first headBytes of a file with xxh3.
func headHash(entry dirstat.Entry) (uint64, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, headBytes)

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("reading %q: %w", entry.Path, err)
	}

	return xxh3.Hash(buf[:n]), nil
}

// fullHash streams a file through SHA-256 in fixed-size chunks.
func fullHash(entry dirstat.Entry) (string, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()

	n, err := io.CopyBuffer(h, struct{ io.Reader }{f}, make([]byte, chunkBytes))
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", entry.Path, err)
	}

	if n != entry.Size {
		return "", fmt.Errorf("%q: %w (size %d, read %d)", entry.Path, errChanged, entry.Size, n)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
