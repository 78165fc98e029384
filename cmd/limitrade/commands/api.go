package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/api"
	"github.com/wonny/limitrade/internal/api/handlers"
	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/notify"
	"github.com/wonny/limitrade/internal/scheduler"
	"github.com/wonny/limitrade/internal/scheduler/jobs"
	"github.com/wonny/limitrade/internal/scoring"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/config"
	"github.com/wonny/limitrade/pkg/logger"
	"github.com/wonny/limitrade/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the HTTP API server and, unless disabled, the scan scheduler.

Endpoints:
  GET  /health                - Health check
  POST /api/score             - Score a snapshot set
  POST /api/combinations      - Search trade combinations
  POST /api/forecast          - Feed one aggregate point
  GET  /api/forecast          - Current risk index
  GET  /api/scan/latest       - Latest scan result
  GET  /api/scan/recent       - Recent scan summaries
  POST /api/scan              - Trigger a scan
  GET  /api/config/profile    - Active strategy profile
  PUT  /api/config/profile    - Switch strategy profile
  GET  /ws/scans              - Scan result stream (websocket)

Example:
  go run ./cmd/limitrade api
  go run ./cmd/limitrade api --port 8080 --no-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiNoScheduler bool
	apiRetention   time.Duration
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default is PORT)")
	apiCmd.Flags().BoolVar(&apiNoScheduler, "no-scheduler", false, "serve the API without scheduled scans")
	apiCmd.Flags().DurationVar(&apiRetention, "retention", 7*24*time.Hour, "snapshot history kept in the database")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== limitrade API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":   cfg.Port,
		"env":    cfg.Env,
		"source": cfg.Market.Source,
	}).Info("Initializing API server")

	// 3. Storage and strategy
	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if snap, err := strategyconfig.NewDecisionSnapshot(a.store.Config(), a.strategy); err == nil {
		log.WithFields(map[string]interface{}{
			"strategy_id": snap.StrategyID,
			"profile":     snap.Profile,
			"config_hash": snap.ConfigHash,
		}).Info("Strategy loaded")
	}

	// 4. Scan pipeline, publishing to the websocket hub as well
	hub := handlers.NewHub(log)
	defer hub.Close()

	scanner, err := a.scanner(true, hub)
	if err != nil {
		return err
	}
	scanner.Seed(a.latestStored(ctx))

	// 5. Handlers
	limiter := redis.NewRateLimiter(a.redis, keyPrefix)
	checks := map[string]handlers.Pinger{}
	if a.db != nil {
		checks["postgres"] = a.db
	}
	if a.redis.Enabled() {
		checks["redis"] = a.redis
	}

	router := api.NewRouter(api.Handlers{
		Health:       handlers.NewHealthHandler("limitrade", checks),
		Score:        handlers.NewScoreHandler(scoring.NewEngine(log), a.store, scanner, log),
		Combinations: handlers.NewCombinationHandler(combination.NewGenerator(log.Zerolog()), a.store, limiter, log),
		Forecast:     handlers.NewForecastHandler(scanner, log),
		Scan:         handlers.NewScanHandler(scanner, a.cachePublisher(), limiter, log),
		Config:       handlers.NewConfigHandler(a.store, log),
		Stream:       hub,
	}, log)

	// 6. Scheduler
	discord := a.discord()
	var sched *scheduler.Scheduler
	if !apiNoScheduler && cfg.ScanSchedule != "" {
		sched = scheduler.New(log)
		scanJob := jobs.NewScanJob(scanner, cfg.ScanSchedule, log)
		if discord != nil {
			scanJob.WithAlerter(discord)
		}
		if err := sched.AddJob(scanJob); err != nil {
			return fmt.Errorf("register scan job: %w", err)
		}
		if a.repo != nil {
			if err := sched.AddJob(jobs.NewSnapshotCleanupJob(a.repo, apiRetention, log)); err != nil {
				return fmt.Errorf("register cleanup job: %w", err)
			}
		}
		sched.Start()
	}

	// 7. Start server with graceful shutdown
	server := api.New(cfg, log, router)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	systemAlert(discord, "limitrade started", contracts.AlertSuccess, log)
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	if sched != nil {
		fmt.Println("\nScheduled jobs:")
		for _, name := range sched.GetAllJobs() {
			fmt.Printf("  - %s\n", name)
		}
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	systemAlert(discord, "limitrade shutting down", contracts.AlertWarning, log)

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// systemAlert posts a lifecycle message when a webhook is configured
func systemAlert(discord *notify.Discord, message, level string, log *logger.Logger) {
	if discord == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := discord.SystemAlert(ctx, message, level); err != nil {
		log.WithError(err).Warn("Failed to send system alert")
	}
}
