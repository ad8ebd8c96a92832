package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/wealth-tracker/internal/api/middleware"
	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/config"
	"github.com/ndewijer/wealth-tracker/internal/service"
)

// Services are the dependencies of the HTTP handlers.
type Services struct {
	System       *service.SystemService
	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Valuation    *service.ValuationService
	Prices       *service.PriceService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found", "")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/stats", systemHandler.Stats)
		})

		r.Route("/account", func(r chi.Router) {
			accountHandler := handlers.NewAccountHandler(svc.Accounts)
			r.Get("/", accountHandler.Accounts)
			r.Post("/", accountHandler.CreateAccount)

			r.Route("/{accountId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIDParam("accountId"))
				r.Get("/", accountHandler.GetAccount)
				r.Put("/", accountHandler.UpdateAccount)
				r.Delete("/", accountHandler.DeleteAccount)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
			r.Get("/", transactionHandler.Transactions)
			r.Post("/", transactionHandler.CreateTransaction)

			r.Route("/{transactionId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIDParam("transactionId"))
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Valuation, svc.Prices, cfg.Price.StaleAfter, logger)
			r.Get("/summary", portfolioHandler.Summary)
			r.Get("/holdings", portfolioHandler.Holdings)
		})

		r.Route("/price", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(svc.Prices, cfg.Price.StaleAfter)
			r.Get("/quote", priceHandler.Quote)
			r.Post("/history", priceHandler.SyncHistory)
			r.Post("/refresh", priceHandler.Refresh)
			r.Get("/providers", priceHandler.Providers)
			r.Get("/journal", priceHandler.Journal)
		})
	})

	return r
}
