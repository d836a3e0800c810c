package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/depot/internal/config"
	"github.com/vango-dev/depot/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗┌─┐┌─┐┌─┐┌┬┐
   ║║├┤ ├─┘│ │ │
  ═╩╝└─┘┴  └─┘ ┴
`

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	jsonLog    bool
	noColor    bool
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		asJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
		errors.Fprint(os.Stderr, err, "E142", asJSON)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "depot",
		Short: "Reactive state stores for Go",
		Long: `Depot is a reactive state-container engine for Go.

Stores hold reactive state, derived getters and actions, and live in a
registry that owns their lifetime. This CLI exercises the engine:

  • bench    runs a counter workload and reports throughput
  • hydrate  builds the demo stores from a seed file
  • init     writes a default depot.yaml
  • errors   explains the error codes
  • version  prints build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: depot.yaml in the project root)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonLog, "log-json", false, "Emit logs and errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		benchCmd(flags),
		hydrateCmd(flags),
		initCmd(),
		errorsCmd(),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig resolves the configuration for a command. An explicit --config
// must exist; otherwise the nearest depot config is used, falling back to
// defaults when there is none.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case flags.configPath != "":
		loaded, err := config.LoadFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.New()
		if root, err := config.FindProjectRoot("."); err == nil {
			loaded, err := config.Load(root)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.jsonLog {
		cfg.Log.JSON = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger described by the log section.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
