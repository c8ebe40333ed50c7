package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/app"
	"github.com/unclebandit/campaign-crm/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Campaign delivery worker",
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Consume delivery jobs from RabbitMQ",
	RunE:  runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "optional dotenv file")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if cfg.Queue.Driver != "amqp" {
		return fmt.Errorf("worker needs QUEUE_DRIVER=amqp, got %q", cfg.Queue.Driver)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	return a.Consume(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
