package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rvanbeek/portfolio-tracker/internal/api"
	"github.com/rvanbeek/portfolio-tracker/internal/config"
	"github.com/rvanbeek/portfolio-tracker/internal/database"
	"github.com/rvanbeek/portfolio-tracker/internal/repository"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply schema migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	portfolioFundRepo := repository.NewPortfolioFundRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	fundRepo := repository.NewFundRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	realizedGainLossRepo := repository.NewRealizedGainLossRepository(db)
	materializedRepo := repository.NewMaterializedRepository(db)
	ibkrRepo := repository.NewIbkrRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	invalidationService := service.NewInvalidationService(materializedRepo, portfolioFundRepo)
	materializerService := service.NewMaterializerService(
		materializedRepo,
		portfolioRepo,
		portfolioFundRepo,
		transactionRepo,
		dividendRepo,
		fundRepo,
	)
	historyService := service.NewHistoryService(
		portfolioRepo,
		portfolioFundRepo,
		transactionRepo,
		materializedRepo,
		materializerService,
	)
	portfolioService := service.NewPortfolioService(portfolioRepo, portfolioFundRepo)
	transactionService := service.NewTransactionService(
		db,
		transactionRepo,
		portfolioFundRepo,
		realizedGainLossRepo,
		invalidationService,
	)
	dividendService := service.NewDividendService(
		db,
		dividendRepo,
		transactionRepo,
		portfolioFundRepo,
		invalidationService,
	)
	fundService := service.NewFundService(fundRepo, invalidationService)
	ibkrService := service.NewIbkrService(
		db,
		ibkrRepo,
		portfolioFundRepo,
		transactionRepo,
		invalidationService,
	)

	// Create router
	router := api.NewRouter(api.Services{
		System:       systemService,
		Portfolio:    portfolioService,
		History:      historyService,
		Transaction:  transactionService,
		Dividend:     dividendService,
		Fund:         fundService,
		Ibkr:         ibkrService,
		Materializer: materializerService,
	}, cfg)

	// Nightly sweep fills cache gaps so reads stay cheap even when
	// invalidations have deleted large date ranges during the day.
	var sweeper *cron.Cron
	if cfg.Materialize.SweepEnabled {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Materialize.SweepSchedule, func() {
			log.Println("Starting materialized history sweep")
			counts, err := materializerService.MaterializeAllPortfolios(false)
			if err != nil {
				log.Printf("WARN: materialized history sweep failed: %v", err)
				return
			}
			total := 0
			for _, n := range counts {
				total += n
			}
			log.Printf("Materialized history sweep done: %d rows across %d portfolios", total, len(counts))
		})
		if err != nil {
			log.Fatalf("Failed to schedule materialized history sweep: %v", err)
		}
		sweeper.Start()
		log.Printf("Scheduled materialized history sweep: %s", cfg.Materialize.SweepSchedule)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
