package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"taskdesk/server/internal/config"
)

type Deps struct {
	LoadConfig   func() (config.Config, error)
	RunServe     func(context.Context, config.Config) error
	RunMigrateUp func(context.Context, config.Config) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "taskdesk",
		Usage: "task manager API server",
		Action: func(ctx *cli.Context) error {
			return runServe(ctx.Context, deps)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the API server",
				Action: func(ctx *cli.Context) error {
					return runServe(ctx.Context, deps)
				},
			},
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply pending migrations",
						Action: func(ctx *cli.Context) error {
							cfg, err := loadConfig(deps)
							if err != nil {
								return err
							}
							return runMigrateUp(ctx.Context, deps, cfg)
						},
					},
				},
			},
		},
	}
}

func loadConfig(deps Deps) (config.Config, error) {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.Load()
}

func runServe(ctx context.Context, deps Deps) error {
	cfg, err := loadConfig(deps)
	if err != nil {
		return err
	}
	if deps.RunServe == nil {
		return errors.New("serve runner is not configured")
	}
	return deps.RunServe(ctx, cfg)
}

func runMigrateUp(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunMigrateUp == nil {
		return errors.New("migrate up runner is not configured")
	}
	return deps.RunMigrateUp(ctx, cfg)
}
