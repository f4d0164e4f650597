package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/kds/cmd/app/commands"
	"github.com/allisson/kds/internal/app"
	"github.com/allisson/kds/internal/config"
	"github.com/allisson/kds/internal/database"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate the master key file that protects stored long-term keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "path",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Master key location as file:///absolute/path (defaults to KDS_MASTER_KEY)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI used to encrypt the file (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				if path := cmd.String("path"); path != "" {
					cfg.MasterKeyLocation = path
				}
				if uri := cmd.String("kms-key-uri"); uri != "" {
					cfg.KMSKeyURI = uri
				}
				if err := cfg.Validate(); err != nil {
					return err
				}

				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				loader, err := container.MasterKeyLoader()
				if err != nil {
					return err
				}

				return commands.RunCreateMasterKey(ctx, loader, commands.DefaultIO().Writer, cfg.KMSKeyURI)
			},
		},
		{
			Name:  "set-key",
			Usage: "Store a principal's long-term key in the configured key store",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "owner",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Principal id that owns the key",
				},
				&cli.StringFlag{
					Name:    "key",
					Aliases: []string{"k"},
					Value:   "",
					Usage:   "Base64 long-term key (omit to generate one)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				kdsUseCase, err := container.KDSUseCase()
				if err != nil {
					return err
				}

				crypto, err := container.SymmetricCrypto()
				if err != nil {
					return err
				}

				return commands.RunSetKey(
					ctx,
					kdsUseCase,
					crypto,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					cmd.String("key"),
					cfg.KeySize,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "import-keys",
			Usage: "Store long-term keys from a JSON object of owner to base64 key read on stdin",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				kdsUseCase, err := container.KDSUseCase()
				if err != nil {
					return err
				}

				var txManager database.TxManager
				if cfg.KeyStoreDriver == config.KeyStorePostgres || cfg.KeyStoreDriver == config.KeyStoreMySQL {
					txManager, err = container.TxManager()
					if err != nil {
						return err
					}
				}

				return commands.RunImportKeys(ctx, kdsUseCase, txManager, container.Logger(), commands.DefaultIO())
			},
		},
	}
}
