package routes

import (
	"net/http"
	"time"

	"github.com/agentrails/agent-wallet/app"
	"github.com/agentrails/agent-wallet/handlers"
	"github.com/agentrails/agent-wallet/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)
	walletHandler := handlers.NewWalletHandler(deps.Wallets, deps.Auditor, deps.Logger)
	agentHandler := handlers.NewAgentHandler(deps.Agents, deps.Wallets, deps.Auditor, deps.Logger)
	ruleHandler := handlers.NewRuleHandler(deps.SpendRules, deps.Wallets, deps.Auditor, deps.Logger)
	transactionHandler := handlers.NewTransactionHandler(deps.TransactionService, deps.Wallets, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.AuditLogs, deps.Wallets, deps.Logger)

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// Prometheus metrics
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Development-only token issuance; production uses an external IdP
	if deps.Config.IsDevelopment() {
		authHandler := handlers.NewAuthHandler(deps.TokenManager, deps.Logger)
		r.Post("/auth/token", authHandler.HandleIssueToken)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Agent-facing endpoints authenticated by API key
		r.Group(func(r chi.Router) {
			r.Use(deps.APIKeyMiddleware.RequireAgent)
			r.Post("/transactions", transactionHandler.HandleCreateTransaction)
		})

		// Owner console endpoints authenticated by JWT
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/wallets", func(r chi.Router) {
				r.Post("/", walletHandler.HandleCreateWallet)
				r.Get("/", walletHandler.HandleListWallets)
				r.Get("/{id}", walletHandler.HandleGetWallet)
				r.Patch("/{id}/status", walletHandler.HandleUpdateWalletStatus)

				r.Get("/{id}/agents", agentHandler.HandleListAgents)
				r.Post("/{id}/rules", ruleHandler.HandleCreateRule)
				r.Get("/{id}/rules", ruleHandler.HandleListRules)
				r.Get("/{id}/transactions", transactionHandler.HandleListTransactions)
				r.Get("/{id}/audit", auditHandler.HandleListAuditLogs)
			})

			r.Route("/agents", func(r chi.Router) {
				r.Post("/", agentHandler.HandleCreateAgent)
				r.Delete("/{id}", agentHandler.HandleDeactivateAgent)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Get("/{id}", ruleHandler.HandleGetRule)
				r.Patch("/{id}", ruleHandler.HandleUpdateRule)
				r.Delete("/{id}", ruleHandler.HandleDeleteRule)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/{id}", transactionHandler.HandleGetTransaction)
				r.Post("/{id}/approve", transactionHandler.HandleApproveTransaction)
				r.Post("/{id}/reject", transactionHandler.HandleRejectTransaction)
			})
		})
	})

	return r
}
