package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fileguard/cmd/app/commands"
	"github.com/allisson/fileguard/internal/app"
	"github.com/allisson/fileguard/internal/config"
)

func getCryptoCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt-file",
			Usage: "Encrypt a file into a serialized envelope",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "input",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Path of the plaintext file",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Path of the envelope to write",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Password for key derivation (omit to use the KMS master key)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				engine, err := container.EnvelopeEngine(ctx)
				if err != nil {
					return err
				}

				return commands.RunEncryptFile(
					ctx,
					engine,
					commands.DefaultIO().Writer,
					cmd.String("input"),
					cmd.String("output"),
					cmd.String("password"),
				)
			},
		},
		{
			Name:  "decrypt-file",
			Usage: "Decrypt a serialized envelope back into plaintext",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "input",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Path of the envelope file",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Path of the plaintext to write",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Password used at encryption time (omit for KMS-wrapped envelopes)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				engine, err := container.EnvelopeEngine(ctx)
				if err != nil {
					return err
				}

				return commands.RunDecryptFile(
					ctx,
					engine,
					commands.DefaultIO().Writer,
					cmd.String("input"),
					cmd.String("output"),
					cmd.String("password"),
				)
			},
		},
		{
			Name:  "create-master-key",
			Usage: "Generate fresh master key and audit signing key material",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateMasterKey(commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "scan",
			Usage: "Scan a file on disk and report the verdict",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Path of the file to scan",
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

				scanner, err := container.ScanUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunScanFile(
					ctx,
					scanner,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("file"),
					cmd.String("format"),
				)
			},
		},
	}
}
