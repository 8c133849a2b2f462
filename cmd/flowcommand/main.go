package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowcommand/flowcommand/pkg/analysis"
	"github.com/flowcommand/flowcommand/pkg/cache"
	pkgcmd "github.com/flowcommand/flowcommand/pkg/cmd"
	"github.com/flowcommand/flowcommand/pkg/log"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowcommand",
		Usage:                 "Mission control for a fleet of n8n instances",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Storage URL: a postgres:// connection string or a file:// data directory",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Usage:   "API key for the Gemini analysis model (analysis disabled when empty)",
				Sources: cli.EnvVars("GEMINI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "gemini-model",
				Usage:   "Gemini model used for failure analysis",
				Sources: cli.EnvVars("GEMINI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing FlowCommand API")

			persistence, err := pkgcmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			statusCache := cache.New(cache.DefaultTTL, logger)
			if err := statusCache.StartSweeper(); err != nil {
				return err
			}
			defer statusCache.StopSweeper()

			generator := analysis.NewGeminiClient(
				command.String("gemini-api-key"),
				command.String("gemini-model"),
				logger,
			)

			api := NewAPI(logger, persistence, statusCache, generator)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
