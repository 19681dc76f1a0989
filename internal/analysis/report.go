package analysis

import (
	"time"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/dirstat"
)

// Report is the materialized result of one analysis run.
type Report struct {
	// ScanID identifies the run, e.g. in the deletion audit log.
	ScanID string `json:"scan_id" yaml:"scan_id"`
	// Root is the absolute path that was scanned.
	Root string `json:"root" yaml:"root"`
	// ExpandAll asks renderers to expand every directory of the tree.
	ExpandAll bool `json:"expand_all" yaml:"expand_all"`
	// Tree is the size-ordered directory tree.
	Tree *dirstat.Node `json:"tree" yaml:"tree"`
	// TotalFolders is the number of directories below the root.
	TotalFolders int64 `json:"total_folders" yaml:"total_folders"`
	// TotalFiles is the number of readable regular files.
	TotalFiles int64 `json:"total_files" yaml:"total_files"`
	// TotalBytes is the cumulative size of all files.
	TotalBytes int64 `json:"total_bytes" yaml:"total_bytes"`
	// Disk is the usage of the volume holding the root, if it could be queried.
	Disk *dirstat.DiskUsage `json:"disk,omitempty" yaml:"disk,omitempty"`
	// Candidates are the files selected for deletion, sorted by path.
	Candidates []classify.Candidate `json:"candidates" yaml:"candidates"`
	// Duplicates lists every duplicate group with all of its members.
	Duplicates []classify.DuplicateGroup `json:"duplicates" yaml:"duplicates"`
	// ReclaimableBytes is the total size of all candidates.
	ReclaimableBytes int64 `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
	// Skipped lists entries that could not be read while walking or hashing.
	Skipped []dirstat.SkippedEntry `json:"skipped" yaml:"skipped"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Candidate returns the candidate at path, if any.
func (r *Report) Candidate(path string) (classify.Candidate, bool) {
	for _, c := range r.Candidates {
		if c.Path == path {
			return c, true
		}
	}

	return classify.Candidate{}, false
}
