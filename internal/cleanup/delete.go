package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/dirstat"
)

var (
	// ErrDeletionFailed marks a file that could not be deleted.
	ErrDeletionFailed = errors.New("deletion failed")
	// ErrNotCandidate marks a requested path that is not in the candidate set.
	ErrNotCandidate = errors.New("not a cleanup candidate")
	// ErrDirectory marks a candidate that is now a directory.
	ErrDirectory = errors.New("refusing to delete a directory")
)

// Failure is one file that was not deleted.
type Failure struct {
	classify.Candidate `yaml:",inline"`

	// Message is Err rendered for serialization.
	Message string `json:"error" yaml:"error"`
	// Err wraps ErrDeletionFailed and the underlying cause.
	Err error `json:"-" yaml:"-"`
}

func fail(c classify.Candidate, err error) Failure {
	err = fmt.Errorf("%w: %q: %w", ErrDeletionFailed, c.Path, err)

	return Failure{Candidate: c, Message: err.Error(), Err: err}
}

// Outcome summarizes a deletion pass.
type Outcome struct {
	// Deleted lists the files that were removed.
	Deleted []classify.Candidate `json:"deleted" yaml:"deleted"`
	// Failed lists the files that were not removed.
	Failed []Failure `json:"failed" yaml:"failed"`
	// FreedBytes is the size of all deleted files.
	FreedBytes int64 `json:"freed_bytes" yaml:"freed_bytes"`
}

// Err returns nil when every file was deleted, or an error wrapping
// ErrDeletionFailed and each individual failure.
func (o Outcome) Err() error {
	if len(o.Failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(o.Failed))
	for _, f := range o.Failed {
		errs = append(errs, f.Err)
	}

	return fmt.Errorf("%d of %d files not deleted: %w",
		len(o.Failed), len(o.Failed)+len(o.Deleted), errors.Join(errs...))
}

// Select returns the candidates whose paths are listed in paths. Paths that
// are not candidates are returned as failures.
func Select(candidates []classify.Candidate, paths []string) ([]classify.Candidate, []Failure) {
	byPath := make(map[string]classify.Candidate, len(candidates))
	for _, c := range candidates {
		byPath[c.Path] = c
	}

	var (
		selected []classify.Candidate
		rejected []Failure
		seen     = make(map[string]struct{}, len(paths))
	)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}

		if _, ok := seen[abs]; ok {
			continue
		}

		seen[abs] = struct{}{}

		c, ok := byPath[abs]
		if !ok {
			rejected = append(rejected, fail(unknown(abs), ErrNotCandidate))

			continue
		}

		selected = append(selected, c)
	}

	return selected, rejected
}

// Delete removes each candidate in order. A failure on one file does not stop
// the others. Directories are never removed. When ctx ends, the remaining
// candidates are reported as failed.
func Delete(ctx context.Context, remover Remover, candidates []classify.Candidate, log *slog.Logger) Outcome {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var outcome Outcome

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			outcome.Failed = append(outcome.Failed, fail(c, err))

			continue
		}

		if err := remove(remover, c.Path); err != nil {
			log.Warn("delete failed", "path", c.Path, "error", err)

			outcome.Failed = append(outcome.Failed, fail(c, err))

			continue
		}

		log.Debug("deleted", "path", c.Path, "size", c.Size, "reasons", c.Reasons)

		outcome.Deleted = append(outcome.Deleted, c)
		outcome.FreedBytes += c.Size
	}

	return outcome
}

func unknown(path string) classify.Candidate {
	return classify.Candidate{Entry: dirstat.Entry{Path: path, Name: filepath.Base(path)}}
}

func remove(remover Remover, path string) error {
	info, err := remover.Lstat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return ErrDirectory
	}

	return remover.Remove(path)
}
