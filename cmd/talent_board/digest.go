package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/config"
	"github.com/jonathan/talent-board/internal/db"
	"github.com/jonathan/talent-board/internal/digest"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run one manual digest pass and exit",
	Long:  `Run a single digest pass with manual caps (a handful of users and postings), printing the run summary. Useful for verifying mail delivery without waiting for the schedule.`,
	RunE:  runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	mailer := newMailer(cfg, log)
	dispatcher := digest.NewDispatcher(mailer, cfg.SendInterval, cfg.SendTimeout, log)
	runner := digest.NewRunner(database, database, dispatcher, log)

	summary, err := runner.Run(ctx, digest.ModeManual)
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}

	fmt.Printf("digest run complete: eligible=%d sent=%d failed=%d\n",
		summary.EligibleUsers, summary.Sent, summary.Failed)
	return nil
}
