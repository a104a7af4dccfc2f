package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ai-workflow-hub/backend/internal/auth"
	"ai-workflow-hub/backend/internal/config"
	"ai-workflow-hub/backend/internal/logging"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/seed"
	"ai-workflow-hub/backend/pkg/models"
)

var (
	cfgFile       string
	workflowsFile string
	email         string
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Seed the capability catalogue and sample workflows",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml in . or ./config)")
	rootCmd.Flags().StringVar(&workflowsFile, "workflows", "", "JSON file of workflows to create for the user")
	rootCmd.Flags().StringVar(&email, "email", auth.DevUserEmail, "email of the user that owns seeded workflows")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewLogger(logging.Config{Debug: cfg.Log.Debug, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Storage.Driver == repository.DriverMemory {
		logger.Warn("Seeding the in-memory store has no lasting effect")
	}

	var workflows []models.Workflow
	if workflowsFile != "" {
		workflows, err = seed.LoadWorkflows(workflowsFile)
		if err != nil {
			return err
		}
	}

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	result, err := seed.Run(ctx, store, email, workflows, logger)
	if err != nil {
		return err
	}
	logger.Info("Seeding complete!",
		"user", result.User.ID,
		"capabilities", result.CapabilitiesCreated,
		"workflows", result.WorkflowsCreated,
		"skipped", result.Skipped,
	)
	return nil
}
