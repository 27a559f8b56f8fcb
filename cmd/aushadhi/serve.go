package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbonduro/aushadhi/internal/auth"
	"github.com/vbonduro/aushadhi/internal/db"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/events"
	"github.com/vbonduro/aushadhi/internal/imagestore/local"
	"github.com/vbonduro/aushadhi/internal/service"
	"github.com/vbonduro/aushadhi/internal/store"
	"github.com/vbonduro/aushadhi/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Override LISTEN_ADDR")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	defaultLang, err := domain.ParseLanguage(cfg.DefaultLang)
	if err != nil {
		return fmt.Errorf("DEFAULT_LANG: %w", err)
	}

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	images, err := local.New(cfg.PhotoPath)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	feed := events.NewFeed(logger)
	defer func() {
		if err := feed.Close(); err != nil {
			logger.Error("failed to close event feed", "error", err)
		}
	}()

	scans := service.NewScanService(store.NewScanStore(database), images, completer, feed, cfg.ChatSessionTTL, logger)
	authSvc := auth.NewService(store.NewUserStore(database), cfg.JWTSecret, cfg.TokenTTL, logger)
	server := web.NewServer(scans, authSvc, feed, defaultLang, cfg.TokenTTL, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
