package classify

import (
	"context"
	"time"

	"github.com/idelchi/dirclean/internal/dirstat"
)

// Rule selects files matching one cleanup policy.
//
// Rules only look at regular files, must accept an empty list, and never fail
// on a single unreadable file. Apply returns an error only when ctx ends.
type Rule interface {
	Reason() Reason
	Apply(ctx context.Context, files []dirstat.Entry) (Result, error)
}

// Result is the outcome of one rule.
type Result struct {
	// Reason is the tag of the rule that produced the result.
	Reason Reason `json:"reason" yaml:"reason"`
	// Entries are the selected files. For the duplicate rule this is every
	// member of every group, including the copy that is kept.
	Entries []dirstat.Entry `json:"entries" yaml:"entries"`
	// Groups is set by the duplicate rule only.
	Groups []DuplicateGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	// Skipped lists files the rule could not read.
	Skipped []dirstat.SkippedEntry `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// predicate is a rule that tests each file on its own.
type predicate struct {
	reason Reason
	match  func(dirstat.Entry) bool
}

func (p predicate) Reason() Reason { return p.reason }

func (p predicate) Apply(ctx context.Context, files []dirstat.Entry) (Result, error) {
	result := Result{Reason: p.reason}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	for _, f := range files {
		if f.IsFile() && p.match(f) {
			result.Entries = append(result.Entries, f)
		}
	}

	return result, nil
}

// OldFiles selects files last modified more than threshold before now.
func OldFiles(threshold time.Duration, now time.Time) Rule {
	return predicate{
		reason: ReasonOld,
		match: func(e dirstat.Entry) bool {
			return now.Sub(e.ModifiedAt) > threshold
		},
	}
}

// LargeFiles selects files bigger than threshold bytes.
func LargeFiles(threshold int64) Rule {
	return predicate{
		reason: ReasonLarge,
		match: func(e dirstat.Entry) bool {
			return e.Size > threshold
		},
	}
}

// TemporaryFiles selects files whose extension is in exts.
func TemporaryFiles(exts []string) Rule {
	set := extensionSet(exts)

	return predicate{
		reason: ReasonTemporary,
		match: func(e dirstat.Entry) bool {
			_, ok := set[e.Extension]

			return ok
		},
	}
}

// NonEssentialFiles selects files whose extension is not in keep.
// Files without an extension are non-essential.
func NonEssentialFiles(keep []string) Rule {
	set := extensionSet(keep)

	return predicate{
		reason: ReasonNonEssential,
		match: func(e dirstat.Entry) bool {
			_, ok := set[e.Extension]

			return !ok
		},
	}
}

// AnomalousSize selects files with minBytes < size < maxBytes.
func AnomalousSize(minBytes, maxBytes int64) Rule {
	return predicate{
		reason: ReasonAnomalous,
		match: func(e dirstat.Entry) bool {
			return e.Size > minBytes && e.Size < maxBytes
		},
	}
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range NormalizeExtensions(exts) {
		set[ext] = struct{}{}
	}

	return set
}
