package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/idelchi/dirclean/internal/analysis"
	"github.com/idelchi/dirclean/internal/audit"
	"github.com/idelchi/dirclean/internal/cleanup"
	"github.com/idelchi/dirclean/internal/config"
	"github.com/idelchi/dirclean/internal/dirstat"
)

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

// scan loads the configuration and runs the analysis, drawing a progress
// line on stderr when it is a terminal.
func scan(cmd *cobra.Command, options Options, log *slog.Logger) (*analysis.Report, error) {
	cfg, err := config.Load(options.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	if cfg.File != "" {
		log.Debug("using config file", "path", cfg.File)
	}

	stderr := cmd.ErrOrStderr()
	enableProgress := strings.ToLower(options.Output) == OutputTable &&
		!options.Debug &&
		terminal(stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Scanning… %d files, %s",
				files, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	report, err := analysis.Run(cmd.Context(), analysis.Options{
		Path:      options.Path,
		ExpandAll: options.All,
		Walk: dirstat.WalkOptions{
			Excludes: cfg.Excludes,
			Logger:   log,
		},
		Policy: cfg.Policy,
		Logger: log,
	}, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	return report, err
}

func logic(cmd *cobra.Command, options Options) error {
	log := newLogger(cmd.ErrOrStderr(), options.Debug)

	report, err := scan(cmd, options, log)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()

	switch strings.ToLower(options.Output) {
	case OutputJSON:
		err = PrintJSON(report, stdout)
	case OutputYAML:
		err = PrintYAML(report, stdout)
	case OutputPaths:
		err = PrintPaths(report, stdout)
	case OutputTable:
		err = PrintTable(report, stdout, terminal(stdout))
	default:
		err = fmt.Errorf("unknown output format: %s", options.Output)
	}

	if err != nil || !options.Delete {
		return err
	}

	outcome := cleanup.Delete(cmd.Context(), cleanup.OSRemover{}, report.Candidates, log)

	if err := PrintOutcome(outcome, cmd.ErrOrStderr(), terminal(cmd.ErrOrStderr())); err != nil {
		return err
	}

	if err := record(cmd.Context(), options.AuditDB, report, outcome); err != nil {
		return err
	}

	return outcome.Err()
}

func deleteLogic(cmd *cobra.Command, options Options, paths []string) error {
	log := newLogger(cmd.ErrOrStderr(), options.Debug)

	report, err := scan(cmd, options, log)
	if err != nil {
		return err
	}

	selected, rejected := cleanup.Select(report.Candidates, paths)
	for _, r := range rejected {
		log.Warn("skipping path", "path", r.Path, "error", r.Err)
	}

	outcome := cleanup.Delete(cmd.Context(), cleanup.OSRemover{}, selected, log)
	outcome.Failed = append(outcome.Failed, rejected...)

	stdout := cmd.OutOrStdout()

	switch strings.ToLower(options.Output) {
	case OutputJSON:
		err = PrintJSON(outcome, stdout)
	case OutputYAML:
		err = PrintYAML(outcome, stdout)
	case OutputPaths:
		for _, c := range outcome.Deleted {
			if _, err = fmt.Fprintln(stdout, c.Path); err != nil {
				break
			}
		}
	default:
		err = PrintOutcome(outcome, stdout, terminal(stdout))
	}

	if err != nil {
		return err
	}

	if err := record(cmd.Context(), options.AuditDB, report, outcome); err != nil {
		return err
	}

	return outcome.Err()
}

// record appends outcome to the audit database, if one is configured.
func record(ctx context.Context, path string, report *analysis.Report, outcome cleanup.Outcome) error {
	if path == "" {
		return nil
	}

	store, err := audit.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(ctx, report.ScanID, report.Root, outcome)
}
