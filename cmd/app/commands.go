// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"

	"codeberg.org/nutechnocrats/clubhub/internal/config"
	"codeberg.org/nutechnocrats/clubhub/internal/database"
	"codeberg.org/nutechnocrats/clubhub/internal/server"
	authsvc "codeberg.org/nutechnocrats/clubhub/internal/services/auth"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: withDB(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: withDB(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: withDB(database.MigrateReset),
			},
			{
				Name:  "status",
				Usage: "Print the current schema version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return connect(cmd, func(db *sqlx.DB) error {
						version, err := database.MigrationVersion(ctx, db.DB)
						if err != nil {
							return err
						}
						fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
						return nil
					})
				},
			},
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an administrator or promote an existing account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Usage: "Administrator email"},
			&cli.StringFlag{Name: "password", Usage: "Password for a new account", Sources: cli.EnvVars("ADMIN_PASSWORD")},
			&cli.StringFlag{Name: "first-name", Value: "Club", Usage: "First name for a new account"},
			&cli.StringFlag{Name: "last-name", Value: "Admin", Usage: "Last name for a new account"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.NewFromCLI(cmd)
			db, err := database.Open(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			mailer, err := server.NewMailer(cfg)
			if err != nil {
				return err
			}
			app, err := server.NewApp(cfg, db, mailer)
			if err != nil {
				return err
			}

			user, err := app.Auth.EnsureAdmin(ctx, authsvc.AdminParams{
				Email:     cmd.String("email"),
				Password:  cmd.String("password"),
				FirstName: cmd.String("first-name"),
				LastName:  cmd.String("last-name"),
			})
			if err != nil {
				return err
			}

			slog.Info("admin_ready", "user_id", user.ID, "email", user.Email)
			return nil
		},
	}
}

// withDB runs a migration against a connection that has not been migrated
// automatically.
func withDB(fn func(context.Context, *sql.DB) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return connect(cmd, func(db *sqlx.DB) error {
			if err := fn(ctx, db.DB); err != nil {
				return fmt.Errorf("migrate %s failed: %w", cmd.Name, err)
			}
			slog.Info("migrate_done", "command", cmd.Name)
			return nil
		})
	}
}

func connect(cmd *cli.Command, fn func(db *sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}
