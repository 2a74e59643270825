// Command mtslabd is the mtslab HTTP service.
// It serves the test library, the calculator and the trend explorer, and
// reloads the library on SIGHUP or POST /api/library/reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mtslab/mtslab/internal/api"
	"github.com/mtslab/mtslab/internal/logging"
	"github.com/mtslab/mtslab/internal/store"
	"github.com/mtslab/mtslab/pkg/config"
)

// loadConfig reads MTSLAB_CONFIG (if set) and overlays environment variables.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := os.Getenv("MTSLAB_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.Server.Port = envOrDefault("PORT", cfg.Server.Port)
	cfg.Server.APIKey = envOrDefault("MTSLAB_API_KEY", cfg.Server.APIKey)
	cfg.Library.Source = envOrDefault("MTSLAB_LIBRARY_SOURCE", cfg.Library.Source)
	cfg.Library.Path = envOrDefault("MTSLAB_LIBRARY_PATH", cfg.Library.Path)
	cfg.Library.Bucket = envOrDefault("MTSLAB_LIBRARY_BUCKET", cfg.Library.Bucket)
	cfg.Library.Key = envOrDefault("MTSLAB_LIBRARY_KEY", cfg.Library.Key)
	cfg.Library.Region = envOrDefault("MTSLAB_LIBRARY_REGION", cfg.Library.Region)
	cfg.Library.Endpoint = envOrDefault("MTSLAB_LIBRARY_ENDPOINT", cfg.Library.Endpoint)
	if v := os.Getenv("MTSLAB_CHART_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MTSLAB_CHART_CACHE_SIZE: %w", err)
		}
		cfg.Server.ChartCacheSize = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	log := logging.Logger(logging.SourceApp)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("open library source", "err", err)
	}
	reg, err := src.LoadRegistry(ctx)
	if err != nil {
		log.Fatal("load library", "source", src.Describe(), "err", err)
	}
	log.Info("library loaded", "source", src.Describe(), "tests", reg.Len())

	handler := api.NewHandler(reg, api.Options{
		Source:         src,
		Explore:        cfg.ExploreOptions(),
		APIKey:         cfg.Server.APIKey,
		ChartCacheSize: cfg.Server.ChartCacheSize,
	})
	if cfg.Server.APIKey == "" {
		log.Warn("no API key configured; library reload endpoint is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logging.StdLogger(logging.SourceAPI),
	}

	// SIGHUP reloads the library without dropping connections.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if _, err := handler.Reload(ctx); err != nil {
					log.Error("library reload failed; keeping current library", "err", err)
				}
			}
		}
	}()

	go func() {
		log.Info("starting mtslabd", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
