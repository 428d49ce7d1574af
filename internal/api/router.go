package api

import (
	"log/slog"
	"net/http"
	"time"

	_ "lending-engine/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"lending-engine/internal/api/handler"
	mw "lending-engine/internal/api/middleware"
	"lending-engine/internal/config"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/finance"
)

func SetupRouter(contractService contract.ContractService, clientService client.ClientService, financeService finance.FinanceService, cfg *config.Config, rdb *redis.Client, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, rdb, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupClientRoutes(router, cfg, clientService, logger)
	setupContractRoutes(router, cfg, contractService, logger)
	setupFinanceRoutes(router, cfg, financeService, contractService, logger)
	setupDashboardRoutes(router, cfg, contractService, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, rdb *redis.Client, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, rdb, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupClientRoutes(router chi.Router, cfg *config.Config, svc client.ClientService, logger *slog.Logger) {
	h := handler.NewClientHandler(svc, logger)

	router.Route("/clients", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateClient)
		r.Get("/", h.ListClients)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/", h.GetClient)
			r.Put("/", h.UpdateClient)
			r.Delete("/", h.DeactivateClient)
			r.Put("/reactivate", h.ReactivateClient)
		})
	})
}

func setupContractRoutes(router chi.Router, cfg *config.Config, svc contract.ContractService, logger *slog.Logger) {
	h := handler.NewContractHandler(svc, logger)

	router.Route("/contracts", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateContract)
		r.Get("/", h.ListContracts)
		r.Get("/client/{clientID}", h.ListClientContracts)
		r.Route("/{contractID}", func(r chi.Router) {
			r.Get("/", h.GetContract)
			r.Get("/summary", h.GetContractSummary)
			r.Get("/payments", h.GetPaymentHistory)
			r.Post("/payments", h.RecordPayment)
			r.Post("/payoff", h.PayOff)
			r.Post("/installments/pay", h.PayInstallments)
		})
	})
}

func setupFinanceRoutes(router chi.Router, cfg *config.Config, svc finance.FinanceService, contractService contract.ContractService, logger *slog.Logger) {
	h := handler.NewFinanceHandler(svc, contractService, logger)

	router.Route("/finance", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/summary", h.GetFinanceSummary)
		r.Get("/payments", h.ListPayments)
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", h.CreateExpense)
			r.Get("/", h.ListExpenses)
			r.Get("/summary", h.GetCashFlowSummary)
			r.Route("/{expenseID}", func(r chi.Router) {
				r.Get("/", h.GetExpense)
				r.Put("/", h.UpdateExpense)
				r.Patch("/status", h.UpdateExpenseStatus)
				r.Delete("/", h.DeleteExpense)
			})
		})
	})
}

func setupDashboardRoutes(router chi.Router, cfg *config.Config, svc contract.ContractService, logger *slog.Logger) {
	h := handler.NewDashboardHandler(svc, logger)

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/summary", h.GetDashboardSummary)
	})
}
