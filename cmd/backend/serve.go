package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hairizuanbinnoorazman/validation-agent/auth"
	"github.com/hairizuanbinnoorazman/validation-agent/browser"
	"github.com/hairizuanbinnoorazman/validation-agent/cmd/backend/handlers"
	"github.com/hairizuanbinnoorazman/validation-agent/database"
	"github.com/hairizuanbinnoorazman/validation-agent/executor"
	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/pipeline"
	"github.com/hairizuanbinnoorazman/validation-agent/run"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/hairizuanbinnoorazman/validation-agent/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogrusLoggerWithOptions(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer log.Close()
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.Driver == database.DriverSQLite {
		if err := database.AutoMigrate(db, &run.Run{}); err != nil {
			return err
		}
	}
	log.Info(ctx, "database connected", map[string]interface{}{
		"driver":   cfg.Database.Driver,
		"host":     cfg.Database.Host,
		"database": cfg.Database.Database,
	})

	runStore := run.NewMySQLStore(db, log)

	blobs, err := storage.New(ctx, storage.Config{
		Type:          cfg.Storage.Type,
		BaseDir:       cfg.Storage.BaseDir,
		S3Bucket:      cfg.Storage.S3Bucket,
		S3Region:      cfg.Storage.S3Region,
		S3Prefix:      cfg.Storage.S3Prefix,
		PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info(ctx, "screenshot storage initialized", map[string]interface{}{
		"type": cfg.Storage.Type,
	})

	launcher := browser.NewCDPLauncher(browser.CDPConfig{
		DevToolsURL:    cfg.Browser.DevToolsURL,
		ExecPath:       cfg.Browser.ChromePath,
		WindowWidth:    cfg.Browser.WindowWidth,
		WindowHeight:   cfg.Browser.WindowHeight,
		StartupTimeout: cfg.Browser.StartupTimeout,
	}, log)
	browserCfg := browser.DefaultConfig()
	browserCfg.NavigationTimeout = cfg.Browser.NavigationTimeout
	browserCfg.StepTimeout = cfg.Browser.StepTimeout
	browserCfg.ScreenshotTimeout = cfg.Browser.ScreenshotTimeout
	sessions := browser.NewManager(launcher, storage.NewArtifactStore(blobs), browserCfg, log)

	registry := auth.NewRegistry(log)
	registry.StartCleanup(cfg.Auth.CleanupInterval)
	defer registry.StopCleanup()

	var signer *auth.TokenSigner
	if cfg.Auth.TokenSecret != "" {
		signer, err = auth.NewTokenSigner(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("failed to create token signer: %w", err)
		}
	} else {
		log.Warn(ctx, "auth.token_secret not set; login completion relies on the in-page button", nil)
	}

	// completer stays a nil interface when completion is disabled so
	// stages fall back to their deterministic defaults.
	var completer llm.Completer
	if cfg.LLM.Enabled {
		bedrock, err := llm.NewBedrockCompleter(ctx, cfg.LLM.Region, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
		if err != nil {
			return fmt.Errorf("failed to create completer: %w", err)
		}
		completer = bedrock
		log.Info(ctx, "text completion enabled", map[string]interface{}{
			"region": cfg.LLM.Region,
			"model":  cfg.LLM.Model,
		})
	}

	execution := pipeline.NewExecutionStage(
		sessions,
		executor.NewExecutor(sessions, scenario.DefaultLimits(), log),
		auth.NewCoordinator(sessions, registry, log),
		log,
	)
	orchestrator := pipeline.NewOrchestrator(
		pipeline.StandardStages(completer, cfg.LLM.MaxInputLength, execution, log),
		pipeline.ReportingStage{},
		log,
	)
	runner := pipeline.NewRunner(orchestrator, runStore, pipeline.RunnerConfig{
		MaxConcurrent:      int64(cfg.Runner.MaxConcurrent),
		RunTimeout:         cfg.Runner.RunTimeout,
		AuthDefaultTimeout: cfg.Auth.DefaultTimeout,
		AuthMaxTimeout:     cfg.Auth.MaxTimeout,
	}, log)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workerPool := pipeline.NewWorkerPool(cfg.Runner.Workers, runStore, runner, log)
	workerPool.Start(workerCtx)

	router := mux.NewRouter()
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	runHandler := handlers.NewRunHandler(runner, runStore, workerPool, signer, registry, log)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	authMiddleware := handlers.NewAuthMiddleware(cfg.APIKey, log)
	rateLimiter := handlers.NewRateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	apiRouter.Use(authMiddleware.Handler)
	apiRouter.Use(rateLimiter.Handler)

	apiRouter.HandleFunc("/runs", runHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/runs", runHandler.List).Methods("GET")
	apiRouter.HandleFunc("/runs/{id}", runHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/runs/{id}/auth/complete", runHandler.CompleteAuth).Methods("POST")

	if cfg.APIKey == "" {
		log.Warn(ctx, "api_key not set; /api/v1 is unauthenticated", nil)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	stopWorkers()

	log.Info(ctx, "server stopped", nil)
	return nil
}

func connectDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:       cfg.Driver,
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		Database:     cfg.Database,
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
