package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ai-workflow-hub/backend/internal/capability"
	"ai-workflow-hub/backend/internal/config"
	"ai-workflow-hub/backend/internal/logging"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/internal/services"
	"ai-workflow-hub/backend/internal/workflow"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "AI workflow hub backend",
	Long: `server hosts the AI workflow hub: a REST API and MCP endpoint for
composing workflows of AI capabilities and executing them against stored
artifacts.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml in . or ./config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, runCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the wired service graph shared by the commands.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	repo       repository.Repository
	executor   *workflow.Executor
	supervisor *services.RunSupervisor
	executions *services.ExecutionService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("configuration loading failed: %w", err)
	}
	if debug {
		cfg.Log.Debug = true
	}

	logger, err := logging.NewLogger(logging.Config{
		Debug:  cfg.Log.Debug,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}

	repo, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "driver", cfg.Storage.Driver)

	transport, err := capability.NewTransport(cfg.AI.Provider, cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout)
	if err != nil {
		repo.Close()
		return nil, err
	}
	invoker := capability.NewInvoker(transport, cfg.AI.DefaultModel)
	executor := workflow.NewExecutor(repo, invoker, logger)
	supervisor := services.NewRunSupervisor(executor, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		executor:   executor,
		supervisor: supervisor,
		executions: services.NewExecutionService(repo, executor, supervisor),
	}, nil
}

// close waits for background runs and releases storage.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.supervisor.Shutdown(ctx); err != nil {
		a.logger.Warn("Background runs still active at shutdown", "error", err)
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Error("Failed to close storage", "error", err)
	}
	_ = a.logger.Sync()
}
