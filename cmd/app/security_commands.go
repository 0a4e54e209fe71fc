package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fileguard/cmd/app/commands"
	"github.com/allisson/fileguard/internal/app"
	"github.com/allisson/fileguard/internal/config"
)

func getSecurityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "quarantine-list",
			Usage: "List quarantine records",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Pagination offset",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Pagination limit",
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

				quarantine, err := container.QuarantineUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunQuarantineList(
					ctx,
					quarantine,
					commands.DefaultIO().Writer,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "resolve-quarantine",
			Usage: "Mark a quarantine record as resolved",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Quarantine record ID (UUID)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				quarantine, err := container.QuarantineUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunResolveQuarantine(
					ctx,
					quarantine,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "purge-quarantine",
			Usage: "Securely destroy a quarantine artifact on disk",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "path",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Path of the quarantine artifact",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				quarantine, err := container.QuarantineUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunPurgeQuarantine(
					ctx,
					quarantine,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("path"),
				)
			},
		},
		{
			Name:  "quarantine-purge-expired",
			Usage: "Destroy resolved quarantine records past the retention window",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "retention-days",
					Aliases: []string{"d"},
					Value:   0,
					Usage:   "Retention window in days (default: configured value)",
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

				quarantine, err := container.QuarantineUseCase(ctx)
				if err != nil {
					return err
				}

				retentionDays := int(cmd.Int("retention-days"))
				if retentionDays == 0 {
					retentionDays = cfg.QuarantineRetentionDays
				}

				return commands.RunPurgeExpiredQuarantine(
					ctx,
					quarantine,
					container.Logger(),
					commands.DefaultIO().Writer,
					retentionDays,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Verify cryptographic integrity of audit logs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start",
					Aliases: []string{"s"},
					Value:   "",
					Usage:   "Start time in RFC 3339 format (default: 24h before end)",
				},
				&cli.StringFlag{
					Name:    "end",
					Aliases: []string{"e"},
					Value:   "",
					Usage:   "End time in RFC 3339 format (default: now)",
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

				audit, err := container.AuditUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					audit,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start"),
					cmd.String("end"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-audit-logs",
			Usage: "Delete audit logs past their retention windows",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "general-days",
					Aliases: []string{"d"},
					Value:   0,
					Usage:   "Retention for general events in days (default: configured value)",
				},
				&cli.IntFlag{
					Name:    "security-days",
					Aliases: []string{"D"},
					Value:   0,
					Usage:   "Retention for resolved incidents in days (default: configured value)",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many logs would be deleted without deleting",
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

				audit, err := container.AuditUseCase(ctx)
				if err != nil {
					return err
				}

				generalDays := int(cmd.Int("general-days"))
				if generalDays == 0 {
					generalDays = cfg.AuditRetentionDays
				}
				securityDays := int(cmd.Int("security-days"))
				if securityDays == 0 {
					securityDays = cfg.SecurityAuditRetentionDays
				}

				return commands.RunCleanAuditLogs(
					ctx,
					audit,
					container.Logger(),
					commands.DefaultIO().Writer,
					generalDays,
					securityDays,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
