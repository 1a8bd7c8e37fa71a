package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/config"
	"github.com/jonathan/talent-board/internal/db"
	"github.com/jonathan/talent-board/internal/digest"
	"github.com/jonathan/talent-board/internal/lifecycle"
	"github.com/jonathan/talent-board/internal/mail"
	"github.com/jonathan/talent-board/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes posting search and application lifecycle endpoints, plus the daily digest scheduler.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	mailer := newMailer(cfg, log)
	notifier := mail.NewStatusNotifier(mailer, database)
	engine := lifecycle.NewEngine(database, database, notifier, log)

	dispatcher := digest.NewDispatcher(mailer, cfg.SendInterval, cfg.SendTimeout, log)
	runner := digest.NewRunner(database, database, dispatcher, log)

	if cfg.DigestEnabled {
		scheduler := digest.NewScheduler(context.Background(), runner, digest.SchedulerConfig{
			Hour:     cfg.DigestHour,
			Minute:   cfg.DigestMinute,
			Location: cfg.Location(),
		}, log)
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		JWTSecret: cfg.JWTSecret,
	}, database, engine, runner, log)

	return srv.Start()
}

// newMailer selects the SMTP transport when a host is configured and
// the logging mailer otherwise, so local development needs no relay.
func newMailer(cfg *config.Config, log *zap.SugaredLogger) mail.Mailer {
	if cfg.SMTPHost == "" {
		log.Infow("no SMTP host configured, using log mailer")
		return mail.NewLogMailer(log)
	}
	return mail.NewSMTP(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.MailFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
}
