// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"codeberg.org/nutechnocrats/clubhub/internal/config"
	"codeberg.org/nutechnocrats/clubhub/internal/server"
)

func main() {
	cmd := &cli.Command{
		Name:   "clubhub",
		Usage:  "Club membership API",
		Flags:  config.Flags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			server.SetupLogger(os.Stdout, cmd.String("log-level"), cmd.String("log-format"))
			return ctx, nil
		},
		Action: server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API (default)",
				Action: server.Run,
			},
			migrateCommand(),
			createAdminCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
