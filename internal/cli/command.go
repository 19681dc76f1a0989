package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/dirclean/internal/config"
	"github.com/idelchi/dirclean/internal/integration"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
	OutputPaths = "paths"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Options holds the flags that are not part of the resolved configuration.
type Options struct {
	Path        string
	All         bool
	Output      string
	ConfigFile  string
	Delete      bool
	AuditDB     string
	Debug       bool
	Integration bool
}

func (o Options) validate() error {
	allowed := []string{OutputTable, OutputJSON, OutputYAML, OutputPaths}
	if !slices.Contains(allowed, strings.ToLower(o.Output)) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowed)
	}

	return nil
}

// Execute runs the CLI. An interrupt cancels the running scan.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var options Options

	root := &cobra.Command{
		Use:   "dirclean [flags] [path]",
		Short: "Analyze a directory tree and find files worth cleaning up",
		Long: heredoc.Doc(`
			dirclean walks a directory tree, reports the size of every folder and
			file, and flags files that are candidates for cleanup.

			Positional Arguments:
			  path    Directory to analyze. Defaults to the current directory.

			Rules:
			  old             not modified for more than --age-days days
			  large           bigger than --large
			  duplicate       identical content to an earlier file (the first copy is kept)
			  temporary       extension listed in --temp-ext
			  non-essential   extension not listed in --keep-ext (opt-in)
			  anomalous-size  size between --anomaly-min and --anomaly-max (opt-in)

			Settings are read from defaults, then a config file (--config, or .dirclean.yaml
			in the working or home directory), then DIRCLEAN_* environment variables, then flags.

			Nothing is deleted unless --delete is given or the delete subcommand is used.
			The '--init' flag prints a zsh function that lets you pick candidates with 'fzf'.
		`),
		Example: heredoc.Doc(`
			dirclean ~/Downloads
			dirclean --all --rules old,large,duplicate /data
			dirclean --output paths . | fzf --multi
			dirclean delete . ./build.log ./cache.tmp
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return options.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if options.Integration {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), rendered)

				return nil
			}

			options.Path = "."
			if len(args) > 0 {
				options.Path = args[0]
			}

			return logic(cmd, options)
		},
	}

	root.SetVersionTemplate("{{.Version}}\n")

	persistent := root.PersistentFlags()
	persistent.StringVarP(&options.Output, "output", "o", OutputTable, "Output format: table, json, yaml or paths")
	persistent.StringVarP(&options.ConfigFile, "config", "c", "", "Config file (default .dirclean.yaml in the working or home directory)")
	persistent.StringVar(&options.AuditDB, "audit-db", "", "SQLite database recording every deletion")
	persistent.BoolVar(&options.Debug, "debug", false, "Enable debug output")
	persistent.BoolVarP(&options.All, "all", "a", false, "Expand every directory of the tree")
	config.RegisterFlags(persistent)

	flags := root.Flags()
	flags.BoolVar(&options.Delete, "delete", false, "Delete every cleanup candidate after the report")
	flags.BoolVarP(&options.Integration, "init", "i", false, "Output init script for shell usage")

	flags.SortFlags = false
	persistent.SortFlags = false

	root.AddCommand(deleteCommand(&options))

	return root
}

func deleteCommand(options *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [flags] <root> <path>...",
		Short: "Delete the given cleanup candidates",
		Long: heredoc.Doc(`
			Rescans root with the same settings and deletes each given path that is still
			a cleanup candidate. Paths that are not candidates are reported and left alone.
			Directories are never deleted.
		`),
		Args:          cobra.MinimumNArgs(2), //nolint:mnd // root and at least one path
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return options.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = args[0]

			return deleteLogic(cmd, *options, args[1:])
		},
	}
}
