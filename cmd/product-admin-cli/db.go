package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/mmk-product-admin/internal/bootstrap"
	"github.com/target/mmk-product-admin/internal/devseed"
)

const defaultMigrationTimeout = 5 * time.Minute

func newMigrateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			return withDatabase(cmd.Context(), cc, timeout, func(ctx context.Context, db *sql.DB) error {
				cc.Logger.InfoContext(ctx, "running database migrations")
				return bootstrap.RunMigrations(ctx, db, cc.Logger)
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "overall timeout")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var (
		timeout     time.Duration
		allowRemote bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run migrations and load deterministic development contacts and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			if _, err = guardRemoteHost(cmd, cc, allowRemote, "seed development data on the configured database"); err != nil {
				return err
			}
			return withDatabase(cmd.Context(), cc, timeout, func(ctx context.Context, db *sql.DB) error {
				return migrateAndSeed(ctx, cc, db, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "overall timeout")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "allow seeding a database that is not on localhost")
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var (
		timeout     time.Duration
		yes         bool
		seed        bool
		allowRemote bool
	)
	cmd := &cobra.Command{
		Use:   "db-reset",
		Short: "Drop the public schema, re-run migrations and optionally seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			remote, err := guardRemoteHost(cmd, cc, allowRemote, "drop and recreate the public schema")
			if err != nil {
				return err
			}
			// A remote host was already confirmed by name; never skip that with --yes.
			if !yes && !remote {
				target := fmt.Sprintf("database %q on %s:%d", cc.Config.Postgres.Name, cc.Config.Postgres.Host, cc.Config.Postgres.Port)
				if err = confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "About to reset the schema of "+target+"."); err != nil {
					return err
				}
			}
			return withDatabase(cmd.Context(), cc, timeout, func(ctx context.Context, db *sql.DB) error {
				cc.Logger.InfoContext(ctx, "dropping public schema", "database", cc.Config.Postgres.Name)
				if err := resetDatabase(ctx, cc, db); err != nil {
					return err
				}
				if !seed {
					return bootstrap.RunMigrations(ctx, db, cc.Logger)
				}
				return migrateAndSeed(ctx, cc, db, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "overall timeout")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt for local databases")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed development data after the reset")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "allow resetting a database that is not on localhost")
	return cmd
}

func migrateAndSeed(ctx context.Context, cc *commandContext, db *sql.DB, out io.Writer) error {
	if err := bootstrap.RunMigrations(ctx, db, cc.Logger); err != nil {
		return err
	}
	stats, err := devseed.Run(ctx, devseed.NewServices(db), cc.Logger)
	if err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	return writef(out, "seeded %d contact(s) and %d product(s); %d already present\n",
		stats.ContactsCreated, stats.ProductsCreated, stats.Skipped)
}

func withDatabase(
	ctx context.Context,
	cc *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cc.Config.Postgres,
		Logger:   cc.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cc.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// guardRemoteHost refuses non-local hosts unless allowed, and then asks for the host name.
func guardRemoteHost(cmd *cobra.Command, cc *commandContext, allow bool, action string) (bool, error) {
	host := cc.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	prompt := fmt.Sprintf("WARNING: database host %q does not look like a local address.\nThis operation will %s.", host, action)
	return true, confirmExact(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt, host)
}

func resetDatabase(ctx context.Context, cc *commandContext, db *sql.DB) error {
	if cc == nil {
		return errors.New("command context is required")
	}
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if user := strings.TrimSpace(cc.Config.Postgres.User); user != "" && !strings.EqualFold(user, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(user))
	}

	for _, stmt := range statements {
		cc.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "":
		return false
	case h == "localhost" || h == "postgres" || strings.HasSuffix(h, ".local"):
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}
