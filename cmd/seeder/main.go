// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/config"
	"github.com/unclebandit/campaign-crm/internal/db"
	"github.com/unclebandit/campaign-crm/internal/repository/postgres"
	"github.com/unclebandit/campaign-crm/internal/service"
)

var (
	envFile string
	reset   bool
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Load demo data and manage the schema",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Seed demo customers and orders",
	Long: `Seed the configured store with demo customers and orders.

Without --reset an already populated store is left untouched.`,
	RunE: runSeed,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "optional dotenv file")
	runCmd.Flags().BoolVar(&reset, "reset", false, "delete existing customers and orders first")
	rootCmd.AddCommand(runCmd, migrateCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := db.OpenStore(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background()) //nolint:errcheck

	seeder := &service.SeedService{CustomerRepo: store.Customers, OrderRepo: store.Orders, Logger: logger}
	result, err := seeder.Seed(cmd.Context(), reset)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d customers, %d orders)\n", result.Message, result.Customers, result.Orders)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	conn, err := db.OpenPostgres(cmd.Context(), cfg.Store.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.Migrate(conn); err != nil {
		return err
	}
	logger.Info("schema up to date", zap.String("database", cfg.Store.Postgres.Database))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
