package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nanikabot/nanika/internal/bot"
	"github.com/nanikabot/nanika/internal/setup"
	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/nanikabot/nanika/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// BotLogDir specifies where bot log files are stored.
	BotLogDir = "logs/bot_logs"

	// shutdownTimeout bounds how long closing the gateway may take.
	shutdownTimeout = 10 * time.Second

	redacted = "[redacted]"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:   "bot",
		Usage:  "Run the nanika Discord bot",
		Action: runBot,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-dir",
				Value: BotLogDir,
				Usage: "Directory log sessions are written to",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Connect to Discord and handle commands until interrupted",
				Action: runBot,
			},
			{
				Name:   "config",
				Usage:  "Print the resolved configuration with secrets redacted",
				Action: printConfig,
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

func runBot(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, c.String("log-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	service := app.DB.Service()

	discordBot, err := bot.New(&app.Config.Bot, bot.Deps{
		Prefixes:   service.Prefix(),
		Blame:      service.Blame(),
		Dictionary: app.Urban,
		Docs:       app.Docs,
		Translator: app.Translator,
		Limiter:    app.Limiter,
	}, app.Logger)
	if err != nil {
		return err
	}

	if err := discordBot.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	discordBot.Close(shutdownCtx)

	return nil
}

func printConfig(_ context.Context, _ *cli.Command) error {
	cfg, dir, err := config.LoadConfig()
	if err != nil {
		return err
	}

	redact(cfg)

	out, err := sonic.ConfigStd.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	logger.Info("Resolved configuration", zap.String("dir", dir))

	fmt.Println(string(out))

	return nil
}

// redact blanks out credentials that are set.
func redact(cfg *config.Config) {
	for _, secret := range []*string{
		&cfg.Bot.Discord.Token,
		&cfg.Common.PostgreSQL.Password,
		&cfg.Common.Redis.Password,
		&cfg.Common.Sentry.DSN,
		&cfg.Common.Uptrace.DSN,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}
}
