package app

import (
	"context"
	"fmt"

	"github.com/agentrails/agent-wallet/auth"
	"github.com/agentrails/agent-wallet/config"
	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/observability"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/repositories/postgres"
	auditsvc "github.com/agentrails/agent-wallet/services/audit"
	"github.com/agentrails/agent-wallet/services/rules"
	"github.com/agentrails/agent-wallet/services/transactions"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	// Repositories
	Wallets      repositories.WalletRepository
	Agents       repositories.AgentRepository
	SpendRules   repositories.SpendRuleRepository
	Transactions repositories.TransactionRepository
	AuditLogs    repositories.AuditRepository

	// Services
	Engine             *rules.Engine
	Auditor            *auditsvc.Service
	TransactionService *transactions.Service

	// Auth
	TokenManager     *auth.TokenManager
	AuthMiddleware   *middleware.AuthMiddleware
	APIKeyMiddleware *middleware.APIKeyMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initObservability()
	deps.initServices(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.DB.NewRepositories()

	d.Wallets = repos.Wallets
	d.Agents = repos.Agents
	d.SpendRules = repos.SpendRules
	d.Transactions = repos.Transactions
	d.AuditLogs = repos.AuditLogs

	d.Logger.Info("repositories initialized")
}

// initObservability sets up the metrics registry
func (d *Dependencies) initObservability() {
	d.Registry = prometheus.NewRegistry()
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initServices wires the policy engine, audit writer and transaction
// pipeline
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Engine = rules.NewEngine(d.SpendRules, d.Transactions, d.Metrics, d.Logger)

	d.Auditor = auditsvc.NewService(d.AuditLogs, d.Metrics, d.Logger, auditsvc.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})

	d.TransactionService = transactions.NewService(d.Engine, d.Wallets, d.Transactions, d.Auditor, d.Logger)

	d.Logger.Info("services initialized")
}

// initAuth sets up the token manager and auth middleware
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.TokenManager = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTLifetime)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenManager, d.Logger)
	d.APIKeyMiddleware = middleware.NewAPIKeyMiddleware(d.Agents, d.Logger)
}

// Close releases infrastructure resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
