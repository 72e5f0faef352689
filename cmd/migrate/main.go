package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"github.com/worktally/worktally-backend/internal/config"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the worktally database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "postgres connection string (defaults to DATABASE_URL, then DB_* settings)")

	open := func() (*migrate.Migrate, error) {
		if dsn == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			dsn = cfg.DatabaseURL()
		}
		return database.NewMigrator(dsn)
	}

	cmd.AddCommand(
		newUpCmd(open),
		newDownCmd(open),
		newVersionCmd(open),
	)
	return cmd
}

type openFunc func() (*migrate.Migrate, error)

func newUpCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "up [N]",
		Short: "Apply all or N pending migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if len(args) == 1 {
				n, err := parseSteps(args[0])
				if err != nil {
					return err
				}
				return report(cmd, m, m.Steps(n))
			}
			return report(cmd, m, m.Up())
		},
	}
}

func newDownCmd(open openFunc) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if all {
				return report(cmd, m, m.Down())
			}
			n := 1
			if len(args) == 1 {
				if n, err = parseSteps(args[0]); err != nil {
					return err
				}
			}
			return report(cmd, m, m.Steps(-n))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func newVersionCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return report(cmd, m, nil)
		},
	}
}

func parseSteps(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("N must be a positive integer, got %q", arg)
	}
	return n, nil
}

func report(cmd *cobra.Command, m *migrate.Migrate, runErr error) error {
	if runErr != nil && !errors.Is(runErr, migrate.ErrNoChange) {
		return runErr
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
	return nil
}
