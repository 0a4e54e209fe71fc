package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fileguard/cmd/app/commands"
	"github.com/allisson/fileguard/internal/app"
	"github.com/allisson/fileguard/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "worker",
			Usage: "Start the cleanup scheduler and metrics server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "run-cleanup",
			Usage: "Run a cleanup task immediately",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "task",
					Aliases: []string{"t"},
					Value:   "all",
					Usage:   "Task name, 'all' or 'emergency'",
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

				scheduler, err := container.CleanupUseCase(ctx)
				if err != nil {
					return err
				}
				if err := scheduler.Setup(); err != nil {
					return err
				}

				return commands.RunCleanup(
					ctx,
					scheduler,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("task"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "update-definitions",
			Usage: "Refresh the malware signature database",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				scanner, err := container.ScanUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunUpdateDefinitions(
					ctx,
					scanner,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
