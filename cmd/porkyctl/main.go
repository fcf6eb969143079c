package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/config"
	"github.com/porkyfarm/porcpro/internal/repository"
	"github.com/porkyfarm/porcpro/internal/repository/backend"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/logger"
)

var (
	envFile string
	userID  string
	output  string

	cfg     *config.Config
	log     *zap.Logger
	repo    repository.DocumentRepository
	manager *store.Manager
)

var rootCmd = &cobra.Command{
	Use:   "porkyctl",
	Short: "Inspect PorkyFarm documents from the command line",
	Long: `porkyctl opens the farm document of a user on the configured storage
backend (STORAGE_DRIVER) and prints its dashboard figures, alerts and
activity log, or pushes its feeding ledger to Google Sheets.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id of the farm (empty opens the demo farm)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "table", "output format: table or json")
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	if output != "table" && output != "json" {
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", output)
	}

	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err = logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	repo, err = backend.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	manager = store.NewManager(repo, log.Named("store"))
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if manager == nil {
		return nil
	}
	if err := manager.CloseAll(cmd.Context()); err != nil {
		return fmt.Errorf("save farm document: %w", err)
	}
	_ = log.Sync()
	return repo.Close(cmd.Context())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
