package classify

import (
	"cmp"
	"slices"

	"github.com/idelchi/dirclean/internal/dirstat"
)

// Candidate is a file selected by one or more rules.
type Candidate struct {
	dirstat.Entry `yaml:",inline"`

	// Reasons lists every rule that selected the file, in canonical order.
	Reasons []Reason `json:"reasons" yaml:"reasons"`
}

// Has reports whether the candidate was selected for reason.
func (c Candidate) Has(reason Reason) bool {
	return slices.Contains(c.Reasons, reason)
}

// Consolidate merges rule results into a candidate set sorted by path.
//
// Each path appears once, carrying all of its reasons. The first member of
// every duplicate group is the copy that is kept: it is not a candidate for
// being a duplicate, though other rules may still select it.
func Consolidate(results ...Result) []Candidate {
	kept := make(map[string]struct{})

	for _, r := range results {
		for _, g := range r.Groups {
			kept[g.Kept().Path] = struct{}{}
		}
	}

	byPath := make(map[string]*Candidate)

	for _, r := range results {
		for _, e := range r.Entries {
			if r.Reason == ReasonDuplicate {
				if _, ok := kept[e.Path]; ok {
					continue
				}
			}

			c, ok := byPath[e.Path]
			if !ok {
				c = &Candidate{Entry: e}
				byPath[e.Path] = c
			}

			if !c.Has(r.Reason) {
				c.Reasons = append(c.Reasons, r.Reason)
			}
		}
	}

	candidates := make([]Candidate, 0, len(byPath))

	for _, c := range byPath {
		slices.SortFunc(c.Reasons, func(a, b Reason) int { return a.rank() - b.rank() })
		candidates = append(candidates, *c)
	}

	slices.SortFunc(candidates, func(a, b Candidate) int { return cmp.Compare(a.Path, b.Path) })

	return candidates
}

// Groups collects the duplicate groups from results.
func Groups(results []Result) []DuplicateGroup {
	var groups []DuplicateGroup
	for _, r := range results {
		groups = append(groups, r.Groups...)
	}

	return groups
}

// Skipped collects the entries the rules could not read.
func Skipped(results []Result) []dirstat.SkippedEntry {
	var skipped []dirstat.SkippedEntry
	for _, r := range results {
		skipped = append(skipped, r.Skipped...)
	}

	return skipped
}

// ReclaimableBytes sums the sizes of candidates.
func ReclaimableBytes(candidates []Candidate) int64 {
	var total int64
	for _, c := range candidates {
		total += c.Size
	}

	return total
}
