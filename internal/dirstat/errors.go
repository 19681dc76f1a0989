package dirstat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoot is returned when the scan root is not a readable directory.
	ErrInvalidRoot = errors.New("invalid root")
	// ErrEntryUnreadable marks a single entry that could not be read. The scan
	// continues without it.
	ErrEntryUnreadable = errors.New("entry unreadable")
)

// Operations recorded on skipped entries.
const (
	OpWalk = "walk"
	OpStat = "stat"
	OpHash = "hash"
)

// SkippedEntry records an entry left out of the results and why.
type SkippedEntry struct {
	// Path is the entry that was skipped.
	Path string `json:"path" yaml:"path"`
	// Op is the operation that failed (walk, stat or hash).
	Op string `json:"op" yaml:"op"`
	// Message is the error text.
	Message string `json:"error" yaml:"error"`
	// Err is the underlying error, wrapping ErrEntryUnreadable.
	Err error `json:"-" yaml:"-"`
}

// Skip builds a SkippedEntry for a failed operation on path.
func Skip(op, path string, err error) SkippedEntry {
	wrapped := unreadable(err)

	return SkippedEntry{
		Path:    path,
		Op:      op,
		Message: err.Error(),
		Err:     wrapped,
	}
}

func unreadable(err error) error {
	if errors.Is(err, ErrEntryUnreadable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrEntryUnreadable, err)
}
