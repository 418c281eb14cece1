package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/mmk-product-admin/config"
	redisadapter "github.com/target/mmk-product-admin/internal/adapters/redis"
	"github.com/target/mmk-product-admin/internal/bootstrap"
	"github.com/target/mmk-product-admin/internal/core"
)

func newClearViewStateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "clear-view-state <view-id>",
		Short: "Forget the stored listing query of one browser view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			viewID := strings.TrimSpace(args[0])
			if viewID == "" {
				return errors.New("view id must not be empty")
			}
			if cc.Config.ViewState.Backend != config.BackendRedis {
				return errors.New("view state lives in server memory; set VIEW_STATE_BACKEND=redis to clear it from here")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			rdb, err := bootstrap.ConnectRedis(ctx, bootstrap.DatabaseConfig{
				RedisConfig: cc.Config.Redis,
				Logger:      cc.Logger,
			})
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer func() {
				if cerr := rdb.Close(); cerr != nil {
					cc.Logger.Warn("redis close failed", "error", cerr)
				}
			}()

			store := redisadapter.NewViewStateStore(rdb, core.ViewStateConfig{
				TTL:       cc.Config.ViewState.TTL,
				PageLimit: cc.Config.Products.PageLimit,
			})
			if err = store.Delete(ctx, viewID); err != nil {
				return fmt.Errorf("clear view state: %w", err)
			}
			return writef(cmd.OutOrStdout(), "cleared view state %s\n", viewID)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")
	return cmd
}
