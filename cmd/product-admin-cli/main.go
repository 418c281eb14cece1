// Command product-admin-cli runs maintenance tasks against the product admin's
// database, Redis and listing backend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/bootstrap"
)

// commandContext is shared by every subcommand once the root pre-run has loaded config.
type commandContext struct {
	Logger *slog.Logger
	Config config.AppConfig
}

type ctxKey struct{}

func fromCommand(cmd *cobra.Command) (*commandContext, error) {
	cc, ok := cmd.Context().Value(ctxKey{}).(*commandContext)
	if !ok || cc == nil {
		return nil, errors.New("command context not initialised")
	}
	return cc, nil
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "product-admin-cli",
		Short:         "Maintenance commands for the product admin",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			level := cfg.SlogLevel()
			if debug {
				level = slog.LevelDebug
			}
			cc := &commandContext{Logger: bootstrap.InitLogger(level), Config: cfg}
			cmd.SetContext(context.WithValue(cmd.Context(), ctxKey{}, cc))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level regardless of LOG_LEVEL")

	root.AddCommand(
		newMigrateCmd(),
		newDBResetCmd(),
		newSeedCmd(),
		newListProductsCmd(),
		newClearViewStateCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}
