package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kds/cmd/app/commands"
	"github.com/allisson/kds/internal/app"
	"github.com/allisson/kds/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create or update the kds_keys table for the postgres and mysql key stores",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql/ and mysql/ migration sets",
				},
				&cli.IntFlag{
					Name:  "steps",
					Value: 0,
					Usage: "Migrations to apply; 0 applies all, negative values roll back",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					cmd.String("dir"),
					int(cmd.Int("steps")),
				)
			},
		},
		{
			Name:  "hash-admin-token",
			Usage: "Hash an admin bearer token for ADMIN_TOKEN_HASH",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "token",
					Aliases: []string{"t"},
					Value:   "",
					Usage:   "Token to hash (omit to generate one)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunHashAdminToken(
					container.AdminTokenService(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
				)
			},
		},
	}
}
