package dustr

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ffishim/dustr/binding"
	"github.com/ffishim/dustr/module"
	"github.com/ffishim/dustr/report"
)

// parseCacheSize is the number of parsed files kept in watch mode.
const parseCacheSize = 4096

type app struct {
	cfgFile  string
	logLevel string
}

// NewCommand returns the dustr root command.
func NewCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dustr",
		Short: "Map the FFI items of a Rust crate to Dart",
		Long: `dustr reads a Rust crate, finds the items marked with #[derive(FFIShim)]
or #[ffishim_function] and maps the types of their fields, parameters and
return values to dart:ffi and Dart.

Configuration is read from dustr.toml in the working directory, if present.
Use dustr-init to create one.

Examples:
  dustr inspect ./geo
  dustr inspect --format yaml --watch
  dustr bindings`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", `config file path (default "dustr.toml" if present)`)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides the config file)")
	root.AddCommand(a.inspectCommand(), a.bindingsCommand())
	return root
}

// Run executes the dustr command line and exits with status 1 on error.
func Run() {
	if err := NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorString(err))
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) (Options, error) {
	c, baseDir, err := LoadConfig(a.cfgFile)
	if err != nil {
		return Options{}, err
	}
	level := c.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := NewLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return Options{}, fmt.Errorf("log level: %w", err)
	}
	opts := Options{Config: c, BaseDir: baseDir, Logger: logger}
	if len(args) > 0 {
		opts.Crate = args[0]
	}
	return opts, nil
}

// generate runs Generate, logging non-fatal errors.
func generate(opts Options) (*Result, error) {
	res, err := Generate(opts)
	var bErr *binding.Error
	if errors.As(err, &bErr) {
		opts.Logger.Warn().Msg(errorString(bErr))
		return res, nil
	}
	return res, err
}

func (a *app) inspectCommand() *cobra.Command {
	var (
		format string
		from   []string
		watch  bool
		stats  bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [crate]",
		Short: "Print the module tree and the type mappings of every item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.setup(cmd, args)
			if err != nil {
				return err
			}
			if format == "" {
				format = opts.Config.Format
			}
			out := cmd.OutOrStdout()

			run := func() error {
				res, err := generate(opts)
				if err != nil {
					return err
				}
				if format == "dot" && len(from) > 0 {
					err = report.DOT(out, report.NewGraph(res.Set), from)
				} else {
					err = report.Write(out, format, res.Module, res.Set)
				}
				if err != nil {
					return err
				}
				if stats {
					fmt.Fprintln(out)
					report.Stats(out, res.Set)
					fmt.Fprintln(out)
					report.Timing(out, res.Timings)
				}
				return nil
			}
			if !watch {
				return run()
			}

			opts.Cache, err = module.NewParseCache(parseCacheSize)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return Watch(ctx, opts.CrateDir(), opts.Logger, func() {
				if err := run(); err != nil {
					logError(opts.Logger, err)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, yaml, json or dot (default from config)")
	cmd.Flags().StringSliceVar(&from, "from", nil, "with --format dot, only show modules imported from these modules (e.g. geo::shapes)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "print again whenever a source file changes")
	cmd.Flags().BoolVar(&stats, "stats", false, "print binding and timing statistics")
	return cmd
}

func (a *app) bindingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bindings [crate]",
		Short: "Create or update the bindings list",
		Long: `Create or update the bindings list (bindings.txt by default).

Every marked item is listed under [enabled] or [disabled], with the first
line of its doc comment. Move items between the sections to enable or
disable them, and rename them with "crate::module::Item => NewName".
Running the command again keeps these edits, adds new items as enabled and
drops items that no longer exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.setup(cmd, args)
			if err != nil {
				return err
			}
			res, err := generate(opts)
			if err != nil {
				return err
			}
			if err := WriteBindingList(res); err != nil {
				return err
			}
			opts.Logger.Info().
				Str("file", res.BindingsPath).
				Int("items", len(res.Set.Docs())).
				Msg("Wrote bindings list")
			return nil
		},
	}
}

func logError(logger zerolog.Logger, err error) {
	logger.Error().Msg(errorString(err))
}
