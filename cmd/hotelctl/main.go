package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hotelbooking/internal/app"
	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "hotelctl",
		Short:         "Hotel booking maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(migrateCmd(), seedCmd(), jobsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// withApp builds the full application for commands that need services.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := database.Migrate(db, app.Models()...); err != nil {
				return err
			}
			log.Info("schema up to date", zap.String("dialect", db.Dialector.Name()))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	opts := app.SeedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and demo establishments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.AdminEmail != "" && len(opts.AdminPassword) < 8 {
				return fmt.Errorf("--admin-password must be at least 8 characters")
			}
			return withApp(cmd, func(a *app.App) error {
				res, err := a.Seed(cmd.Context(), opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin created: %t, establishments: %d, rooms: %d\n",
					res.AdminCreated, res.Establishments, res.Rooms)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", os.Getenv("ADMIN_EMAIL"), "admin account email")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "admin account password")
	cmd.Flags().StringVar(&opts.AdminName, "admin-name", "Administrateur", "admin display name")
	return cmd
}

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run background jobs",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run every due job once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				stats, err := a.Worker.RunDue(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "done: %d, retried: %d, failed: %d\n", stats.Done, stats.Retried, stats.Failed)
				return nil
			})
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be > 0")
			}
			return withApp(cmd, func(a *app.App) error {
				n, err := a.Worker.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d jobs\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "retention window for done and failed jobs")

	cmd.AddCommand(run, prune)
	return cmd
}
