// Package analysis runs a full scan: walk, aggregate, classify and
// consolidate, and returns the result as a Report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/dirstat"
)

// Options configures an analysis run.
type Options struct {
	// Path is the directory to analyze.
	Path string
	// ExpandAll is passed through to the report for renderers.
	ExpandAll bool
	// Walk configures the traversal.
	Walk dirstat.WalkOptions
	// Policy configures classification.
	Policy classify.Policy
	// Logger receives debug and warning output. Nil discards.
	Logger *slog.Logger
}

// Run analyzes opt.Path and returns the report.
//
// Classification starts only after the walk has finished. If ctx is cancelled
// at any point the run fails and no report is returned. Unreadable entries do
// not fail the run; they are listed in Report.Skipped.
func Run(ctx context.Context, opt Options, progressHook func(files, bytes int64)) (*Report, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if opt.Walk.Logger == nil {
		opt.Walk.Logger = log
	}

	classifier, err := classify.New(opt.Policy, log)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	tree, err := dirstat.Scan(ctx, opt.Path, opt.Walk, progressHook)
	if err != nil {
		return nil, err
	}

	log.Debug("scan complete",
		"root", tree.Root.Path,
		"files", tree.TotalFiles,
		"folders", tree.TotalFolders,
		"bytes", tree.TotalBytes,
		"skipped", len(tree.Skipped),
	)

	results, err := classifier.Classify(ctx, tree.Files)
	if err != nil {
		return nil, fmt.Errorf("classifying %q: %w", tree.Root.Path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := classify.Consolidate(results...)

	report := &Report{
		ScanID:           uuid.NewString(),
		Root:             tree.Root.Path,
		ExpandAll:        opt.ExpandAll,
		Tree:             tree.Root,
		TotalFolders:     tree.TotalFolders,
		TotalFiles:       tree.TotalFiles,
		TotalBytes:       tree.TotalBytes,
		Candidates:       candidates,
		Duplicates:       classify.Groups(results),
		ReclaimableBytes: classify.ReclaimableBytes(candidates),
		Skipped:          slices.Concat(tree.Skipped, classify.Skipped(results)),
	}

	usage, err := dirstat.VolumeUsage(tree.Root.Path)
	if err != nil {
		log.Warn("volume usage unavailable", "root", tree.Root.Path, "error", err)
	} else {
		report.Disk = &usage
	}

	report.Elapsed = time.Since(start)

	return report, nil
}
