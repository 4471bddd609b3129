// Package serve implements the HTTP daemon command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rivalworks/rivalaudit/internal/api"
	"github.com/rivalworks/rivalaudit/internal/config"
	"github.com/rivalworks/rivalaudit/internal/crawler"
	"github.com/rivalworks/rivalaudit/internal/database"
	"github.com/rivalworks/rivalaudit/internal/lifecycle"
	"github.com/rivalworks/rivalaudit/internal/logger"
	"github.com/rivalworks/rivalaudit/internal/orchestrator"
	"github.com/rivalworks/rivalaudit/internal/reporting"
)

// Command returns the serve command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile)
		},
	}
}

func run(ctx context.Context, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{
		Level:       logger.Level(cfg.Logger.Level),
		Development: cfg.Logger.Development,
		Encoding:    cfg.Logger.Encoding,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, cleanup, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	manager := lifecycle.NewManager(store, log, nil, cfg.Audit.TTL)

	httpClient := &http.Client{}
	var robots crawler.RobotsAllower
	if cfg.Audit.RespectRobots {
		robots = crawler.NewRobotsChecker(httpClient, cfg.App.UserAgent)
	}
	siteCrawler := crawler.New(
		crawler.NewHTTPFetcher(httpClient, cfg.App.UserAgent),
		robots,
		log,
		crawler.Config{
			MaxPages:      cfg.Audit.MaxPages,
			MaxDuration:   cfg.Audit.MaxDuration,
			FetchTimeout:  cfg.Audit.FetchTimeout,
			Workers:       cfg.Audit.Workers,
			RespectRobots: cfg.Audit.RespectRobots,
		},
	)

	orch := orchestrator.New(store, manager, siteCrawler, log)
	aggregator := reporting.NewAggregator(store, log)

	sweeper := lifecycle.NewSweeper(manager, log, cfg.Audit.SweepInterval)
	if sweepErr := sweeper.Start(ctx); sweepErr != nil {
		return sweepErr
	}
	defer sweeper.Stop()

	router := api.SetupRouter(log, api.Dependencies{
		Store:        store,
		Manager:      manager,
		Orchestrator: orch,
		Aggregator:   aggregator,
	})
	srv := api.NewHTTPServer(cfg.Server.Address, router)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "address", cfg.Server.Address)
		if listenErr := srv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			serverErr <- listenErr
		}
	}()

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case listenErr := <-serverErr:
		return fmt.Errorf("server error: %w", listenErr)
	case <-signalCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := api.Shutdown(shutdownCtx, srv, log); shutdownErr != nil {
		return fmt.Errorf("shutdown error: %w", shutdownErr)
	}

	// Let in-flight audits finish before the stores close.
	orch.Wait()
	return nil
}

// openStore connects to PostgreSQL when configured and falls back to the
// in-memory store otherwise.
func openStore(cfg *config.Config, log logger.Interface) (database.Store, func(), error) {
	if !cfg.Database.Configured() {
		log.Warn("no database configured, using in-memory store")
		return database.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := database.NewPostgresStore(db)
	cleanup := func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr.Error())
		}
	}
	return store, cleanup, nil
}
