package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cardinventory/internal/config"
	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/images"
	"github.com/JonMunkholm/cardinventory/internal/logging"
	"github.com/JonMunkholm/cardinventory/internal/store"
	"github.com/JonMunkholm/cardinventory/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	repo, err := store.Open(ctx, cfg.Database.URL, store.Options{
		Pool: store.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		},
		AutoMigrate: cfg.Database.AutoMigrate,
	})
	if err != nil {
		slog.Error("failed to open inventory store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	synonyms := core.DefaultSynonyms()
	if cfg.Import.SynonymsFile != "" {
		if synonyms, err = core.LoadSynonymsFile(cfg.Import.SynonymsFile); err != nil {
			slog.Error("failed to load header synonyms", "error", err)
			os.Exit(1)
		}
		slog.Info("header synonyms loaded", "file", cfg.Import.SynonymsFile)
	}

	service := core.NewService(repo, core.Options{
		Synonyms:             synonyms,
		PreviewRowLimit:      cfg.Import.PreviewRowLimit,
		MaxSessions:          cfg.Import.MaxSessions,
		SessionTTL:           cfg.Import.SessionTTL,
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		ImportWaitTime:       cfg.Upload.MaxWaitTime,
		ImportTimeout:        cfg.Upload.Timeout,
		ClearTimeout:         cfg.Upload.ClearTimeout,
	})

	var lister *images.Lister
	if info, err := os.Stat(cfg.Images.Root); err == nil && info.IsDir() {
		lister = images.NewLister(cfg.Images.Root, cfg.Images.BaseURL, cfg.Images.CacheSize, cfg.Images.CacheTTL)
		slog.Info("image database mounted", "root", cfg.Images.Root)
	} else {
		slog.Warn("image database not found, listing disabled", "root", cfg.Images.Root)
	}

	server := web.NewServer(service, lister, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		repo.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
