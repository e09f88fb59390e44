package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/odysseus0/rssfeeder/internal/config"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Execute loads the configuration and runs the command tree until it
// finishes or the process receives SIGINT or SIGTERM.
func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(cfg).ExecuteContext(ctx)
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	var app *App
	getApp := func() *App { return app }

	cmd := &cobra.Command{
		Use:   "rssfeeder [feed-id]",
		Short: "Fetch one RSS feed and write it as normalized JSON",
		Long: "Fetches the RSS feed registered under feed-id (default " + registry.DefaultFeedID + "),\n" +
			"writes its items to <output-dir>/<output-file> and prints the raw channel to stdout.",
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			if !requiresApp(cmd) || app != nil {
				return nil
			}
			a, err := NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireApp(getApp)
			if err != nil {
				return err
			}
			feedID := ""
			if len(args) == 1 {
				feedID = args[0]
			}
			_, err = a.Run(cmd.Context(), feedID)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app = nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	flags := cmd.PersistentFlags()
	flags.String("output-dir", cfg.OutputDir, "Directory the JSON document is written to")
	flags.Int("max-attempts", cfg.Retry.MaxAttempts, "Maximum fetch attempts on timeout (0 = unlimited)")
	flags.String("log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(newFeedsCmd(getApp))

	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		v, _ := flags.GetString("output-dir")
		cfg.OutputDir = v
	}
	if flags.Changed("max-attempts") {
		v, _ := flags.GetInt("max-attempts")
		if v < 0 {
			return fmt.Errorf("%w: --max-attempts must be >= 0", errUsage)
		}
		cfg.Retry.MaxAttempts = v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		if _, err := logrus.ParseLevel(v); err != nil {
			return fmt.Errorf("%w: --log-level: %v", errUsage, err)
		}
		cfg.LogLevel = v
	}
	return nil
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

func requiresApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == "completion" {
			return false
		}
	}
	return true
}
