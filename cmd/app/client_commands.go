package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kds/cmd/app/commands"
	"github.com/allisson/kds/internal/app"
	"github.com/allisson/kds/internal/config"
)

// getClientCommands returns the principal-side helpers. They only need the crypto settings,
// never the master key or the key store.
func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "sign-request",
			Usage: "Print a signed POST /v1/kds/ticket request body",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "requestor",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Principal id asking for the session key",
				},
				&cli.StringFlag{
					Name:     "target",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Principal id the session key is for",
				},
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Requestor's base64 long-term key",
				},
				&cli.Int64Flag{
					Name:  "timestamp",
					Value: 0,
					Usage: "Unix seconds to sign (defaults to now)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				protocol, err := container.Protocol()
				if err != nil {
					return err
				}

				return commands.RunSignRequest(
					protocol,
					commands.DefaultIO().Writer,
					cmd.String("requestor"),
					cmd.String("target"),
					cmd.String("secret"),
					cmd.Int64("timestamp"),
				)
			},
		},
		{
			Name:  "open-reply",
			Usage: "Verify a ticket response read on stdin and print the session keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Requestor's base64 long-term key",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				protocol, err := container.Protocol()
				if err != nil {
					return err
				}

				return commands.RunOpenReply(
					protocol,
					commands.DefaultIO(),
					cmd.String("secret"),
					cmd.String("format"),
				)
			},
		},
	}
}
