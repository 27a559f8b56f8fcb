package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vbonduro/aushadhi/internal/completion"
	"github.com/vbonduro/aushadhi/internal/completion/claude"
	"github.com/vbonduro/aushadhi/internal/completion/flowise"
	"github.com/vbonduro/aushadhi/internal/config"
	"github.com/vbonduro/aushadhi/internal/logging"
)

var (
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "aushadhi",
	Short: "Medicine package analysis and follow-up chat",
	Long: `aushadhi analyzes photos of medicine packages with a remote vision model,
keeps a per-user history of scans and lets users ask follow-up questions
about each analysis in English or Nepali.

  aushadhi serve                          # run the HTTP API
  aushadhi analyze strip.jpg --lang np    # print a sectioned report`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

// setup loads configuration and builds the logger shared by every command.
func setup() (*config.Config, *slog.Logger, func(), error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, cleanup, nil
}

func newCompleter(cfg *config.Config, logger *slog.Logger) (completion.Completer, error) {
	switch cfg.CompletionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when COMPLETION_BACKEND=claude")
		}
		logger.Info("using Claude completion backend", "model", cfg.ClaudeModel)
		return claude.NewClaudeClient(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ChatSessionTTL), nil
	case "flowise":
		if cfg.FlowiseChatflowID == "" {
			logger.Warn("FLOWISE_CHATFLOW_ID is not set; predictions will fail")
		}
		logger.Info("using Flowise completion backend", "url", cfg.FlowiseURL)
		return flowise.NewFlowiseClient(cfg.FlowiseURL, cfg.FlowiseChatflowID), nil
	default:
		return nil, fmt.Errorf("unknown COMPLETION_BACKEND %q", cfg.CompletionBackend)
	}
}
