// eolscout server: HTTP API over the EOL lookup orchestrator, vendor
// agents, two-tier cache, and scheduled cache warming.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/agent/fallback"
	"github.com/codeready-toolchain/eolscout/pkg/agent/vendors"
	"github.com/codeready-toolchain/eolscout/pkg/api"
	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/config"
	"github.com/codeready-toolchain/eolscout/pkg/database"
	"github.com/codeready-toolchain/eolscout/pkg/orchestrator"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
	"github.com/codeready-toolchain/eolscout/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config",
		getEnv("CONFIG_PATH", "./config/eolscout.yaml"),
		"Path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	slog.Info("Starting eolscout",
		"version", version.Full(),
		"config", *configPath)

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.Default()

	// 2. Persistent cache tier. Without DB_HOST the service degrades to a
	// memory-only cache rather than refusing to start.
	var store cache.Store
	if database.Configured() {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err := database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		store = database.NewEOLStore(dbClient)
		slog.Info("Connected to PostgreSQL database", "host", dbConfig.Host)
	} else {
		slog.Warn("DB_HOST not set, running with memory-only cache")
	}

	eolCache := cache.New(store, logger,
		cache.WithMemoryCapacity(cfg.Cache.MemoryCapacity))

	// 3. Telemetry with the Prometheus bridge
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := telemetry.NewCollector(telemetry.NewMetrics(registry))

	// 4. Shared scrape client for the vendor agents
	timeout, err := cfg.Scrape.TimeoutDuration()
	if err != nil {
		slog.Error("Invalid scrape timeout", "error", err)
		os.Exit(1)
	}
	scrapeOpts := []scrape.Option{
		scrape.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Scrape.UserAgent != "" {
		scrapeOpts = append(scrapeOpts, scrape.WithUserAgent(cfg.Scrape.UserAgent))
	}
	fetcher := scrape.NewClient(logger, scrapeOpts...)

	deps := agent.Deps{
		Cache:     eolCache,
		Telemetry: collector,
		Fetcher:   fetcher,
		Logger:    logger,
	}

	// 5. Vendor agents plus the browser fallback
	vendorAgents := vendors.Registry(deps)

	headless := cfg.Browser.IsHeadless()
	if v := os.Getenv("BROWSER_HEADLESS"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			headless = parsed
		}
	}
	browser := fallback.NewBrowser(logger, fallback.BrowserOptions{
		Headless:  headless,
		UserAgent: cfg.Browser.UserAgent,
		SearchURL: cfg.Browser.SearchURL,
	})
	defer browser.Close()

	var llm *fallback.LLMExtractor
	if cfg.LLM.Enabled {
		llm = fallback.NewLLMExtractor(
			cfg.LLM.Endpoint, cfg.LLM.Deployment, cfg.LLM.APIVersion, cfg.LLM.APIKey, logger)
	} else {
		llm = fallback.NewLLMExtractorFromEnv(logger)
	}
	fallbackAgent := fallback.New(deps, browser, llm)

	// 6. Orchestrator and cache warming
	orch := orchestrator.New(vendorAgents, fallbackAgent, eolCache, collector, logger,
		orchestrator.WithWarmConcurrency(cfg.Cache.WarmConcurrency))

	if cfg.Cache.WarmOnStart {
		go func() {
			cycles, err := orch.Warm(ctx)
			if err != nil {
				slog.Warn("Startup cache warm interrupted", "error", err)
			}
			slog.Info("Startup cache warm finished", "cycles", cycles)
		}()
	}
	if err := orch.StartWarming(cfg.Cache.WarmSchedule); err != nil {
		slog.Error("Failed to schedule cache warming",
			"schedule", cfg.Cache.WarmSchedule, "error", err)
		os.Exit(1)
	}
	defer orch.StopWarming()

	// 7. HTTP server
	server := api.NewServer(orch, eolCache, collector,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		logger, cfg.Inventory.Concurrency)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("eolscout started successfully",
		"agents", len(vendorAgents)+1,
		"warm_schedule", cfg.Cache.WarmSchedule)

	// 8. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 9. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
