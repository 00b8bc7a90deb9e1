package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"winterbot/auth"
	"winterbot/internal/app"
	"winterbot/internal/config"
	"winterbot/internal/db"
	"winterbot/internal/utils"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

var errNoSecret = errors.New("JWT_SECRET is not set")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "winterbot",
		Usage: "Discord bot with an 8ball REST API",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the bot and the REST API",
				Action: func(ctx context.Context, _ *cli.Command) error {
					a, err := app.New(ctx, cfg, logger)
					if err != nil {
						return err
					}
					defer a.Close()
					return a.Run(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations",
				Action: func(ctx context.Context, _ *cli.Command) error {
					database, err := db.NewDB(ctx, cfg.DBURL, cfg.DBMaxConns)
					if err != nil {
						return err
					}
					defer database.Close()
					return db.Migrate(ctx, database, logger)
				},
			},
			{
				Name:  "token",
				Usage: "Issue a bearer token for the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "subject",
						Aliases:  []string{"s"},
						Usage:    "Who the token is for",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: auth.DefaultTokenTTL,
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					if cfg.JWTSecret == "" {
						return errNoSecret
					}
					token, err := auth.NewAuthModule(cfg.JWTSecret).IssueToken(c.String("subject"), c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Fatal("exited with error", "err", err)
	}
}
