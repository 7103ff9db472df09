package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rvanbeek/portfolio-tracker/internal/api/handlers"
	custommiddleware "github.com/rvanbeek/portfolio-tracker/internal/api/middleware"
	"github.com/rvanbeek/portfolio-tracker/internal/config"
	"github.com/rvanbeek/portfolio-tracker/internal/service"
)

// Services bundles the service layer dependencies the router needs.
type Services struct {
	System       *service.SystemService
	Portfolio    *service.PortfolioService
	History      *service.HistoryService
	Transaction  *service.TransactionService
	Dividend     *service.DividendService
	Fund         *service.FundService
	Ibkr         *service.IbkrService
	Materializer *service.MaterializerService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.History)
			r.Get("/", portfolioHandler.Portfolios)
			r.Get("/summary", portfolioHandler.PortfolioSummary)
			r.Get("/history", portfolioHandler.PortfolioHistory)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.Portfolio)
				r.Get("/funds", portfolioHandler.PortfolioFunds)
				r.Get("/funds/history", portfolioHandler.FundHistory)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
			r.Get("/", transactionHandler.Transactions)
			r.Post("/", transactionHandler.CreateTransaction)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.Transaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/dividend", func(r chi.Router) {
			dividendHandler := handlers.NewDividendHandler(svc.Dividend)
			r.Get("/", dividendHandler.Dividends)
			r.Post("/", dividendHandler.CreateDividend)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", dividendHandler.Dividend)
				r.Put("/", dividendHandler.UpdateDividend)
				r.Delete("/", dividendHandler.DeleteDividend)
			})
		})

		r.Route("/fund", func(r chi.Router) {
			fundHandler := handlers.NewFundHandler(svc.Fund)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", fundHandler.Fund)
				r.Get("/price", fundHandler.FundPrices)
				r.Put("/price", fundHandler.UpsertFundPrice)
			})
		})

		r.Route("/ibkr", func(r chi.Router) {
			ibkrHandler := handlers.NewIbkrHandler(svc.Ibkr)
			r.Get("/inbox", ibkrHandler.Inbox)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/allocations", ibkrHandler.Allocations)
				r.Post("/allocations", ibkrHandler.Allocate)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			adminHandler := handlers.NewAdminHandler(svc.Materializer)
			r.Get("/materialized/stats", adminHandler.MaterializedStats)
			r.Post("/materialized/rebuild", adminHandler.Rebuild)
		})
	})

	return r
}
