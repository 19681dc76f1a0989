package dirstat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charlievieth/fastwalk"
)

// WalkOptions configures a walk.
type WalkOptions struct {
	// Excludes contains regex patterns matched against slash-separated paths.
	// Matching directories are pruned, matching files are not recorded.
	Excludes []string
	// NumWorkers bounds the number of directories read in parallel
	// (0 = fastwalk default).
	NumWorkers int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives debug output about skipped entries. Nil discards.
	Logger *slog.Logger
}

// Record is a single walker result: an entry, or the error that prevented
// reading it.
type Record struct {
	Entry

	// Op names the failed operation when Err is set (OpWalk or OpStat).
	Op string
	// Err is non-nil when the entry could not be read. It wraps ErrEntryUnreadable.
	Err error
}

// ValidateRoot resolves root to an absolute path and checks that it is a
// readable directory. Failures wrap ErrInvalidRoot.
func ValidateRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("%w: resolving %q: %w", ErrInvalidRoot, root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: accessing %q: %w", ErrInvalidRoot, root, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrInvalidRoot, root)
	}

	dir, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: opening %q: %w", ErrInvalidRoot, root, err)
	}
	defer dir.Close()

	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: reading %q: %w", ErrInvalidRoot, root, err)
	}

	return abs, nil
}

// Walk traverses the tree rooted at root and calls visit for every entry,
// including the root itself.
//
// Directories are read in parallel, so visit must be safe for concurrent use.
// Entries of one directory are visited in lexical order; subdirectories are
// queued and walked independently of their siblings. Symbolic links are
// recorded but not followed. Unreadable entries are reported through
// Record.Err and the walk carries on.
//
// Walk fails only if root is invalid (ErrInvalidRoot), an exclude pattern does
// not compile, or ctx is cancelled.
func Walk(ctx context.Context, root string, opts WalkOptions, visit func(Record)) error {
	root, err := ValidateRoot(root)
	if err != nil {
		return err
	}

	excludes, err := compileExcludes(opts.Excludes)
	if err != nil {
		return err
	}

	log := logger{Logger: opts.Logger}

	conf := &fastwalk.Config{
		Follow:     false, // Don't follow symlinks
		Sort:       fastwalk.SortLexical,
		NumWorkers: opts.NumWorkers,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.debug("skipping unreadable entry", "path", path, "error", err)
			visit(Record{
				Entry: Entry{Path: path, Name: filepath.Base(path), Kind: kindOf(d)},
				Op:    OpWalk,
				Err:   unreadable(err),
			})

			return nil
		}

		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path != root {
			if matched := shouldExcludeByPattern(path, excludes); matched != nil {
				log.debug("excluding entry", "path", filepath.ToSlash(path), "regex", matched.String())

				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			log.debug("skipping entry without metadata", "path", path, "error", err)
			visit(Record{
				Entry: Entry{Path: path, Name: d.Name(), Kind: KindFromMode(d.Type())},
				Op:    OpStat,
				Err:   unreadable(err),
			})

			return nil //nolint:nilerr // Intentionally skip errors during walk
		}

		visit(Record{Entry: NewEntry(path, info)})

		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %q: %w", root, walkErr)
	}

	return nil
}

// Collect walks root and returns every record once the walk has finished.
// progressHook, if set, is called periodically with the running file count and
// byte total.
func Collect(ctx context.Context, root string, opts WalkOptions, progressHook func(files, bytes int64)) ([]Record, error) {
	collector := newCollector()

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, collector, progressHook, opts.ProgressInterval)

	if err := Walk(ctx, root, opts, collector.add); err != nil {
		return nil, err
	}

	return collector.finalize(), nil
}

// Scan walks root and aggregates the records into a Tree.
func Scan(ctx context.Context, root string, opts WalkOptions, progressHook func(files, bytes int64)) (*Tree, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	records, err := Collect(ctx, abs, opts, progressHook)
	if err != nil {
		return nil, err
	}

	return Aggregate(abs, records), nil
}

// compileExcludes compiles the exclusion patterns.
func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	excludeRegexes := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		excludeRegexes = append(excludeRegexes, re)
	}

	return excludeRegexes, nil
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

func kindOf(d fs.DirEntry) Kind {
	if d == nil {
		return KindOther
	}

	return KindFromMode(d.Type())
}
