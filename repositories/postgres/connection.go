package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agentrails/agent-wallet/config"
	"github.com/agentrails/agent-wallet/repositories"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Wallets table
		CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Agents table
		CREATE TABLE IF NOT EXISTS agents (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			api_key_hash VARCHAR(255) NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Spend rules table
		CREATE TABLE IF NOT EXISTS spend_rules (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
			rule_type VARCHAR(50) NOT NULL,
			parameters JSONB NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Transactions table
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
			agent_id UUID REFERENCES agents(id) ON DELETE SET NULL,
			amount DECIMAL(14, 2) NOT NULL,
			category VARCHAR(100),
			recipient_id VARCHAR(255),
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP
		);

		-- Audit logs table
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			wallet_id UUID NOT NULL,
			agent_id UUID,
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id UUID,
			details JSONB,
			request_id VARCHAR(255),
			ip_address VARCHAR(45),
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_wallets_owner_id ON wallets(owner_id);
		CREATE INDEX IF NOT EXISTS idx_agents_wallet_id ON agents(wallet_id);
		CREATE INDEX IF NOT EXISTS idx_agents_api_key_hash ON agents(api_key_hash);
		CREATE INDEX IF NOT EXISTS idx_spend_rules_wallet_active ON spend_rules(wallet_id, active);
		CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_spend_window
			ON transactions(wallet_id, status, created_at);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_wallet_id ON audit_logs(wallet_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_resource_id ON audit_logs(resource_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized")
	return nil
}

// NewRepositories builds the full repository set backed by this database
func (db *DB) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Wallets:      NewWalletRepository(db, db.logger),
		Agents:       NewAgentRepository(db, db.logger),
		SpendRules:   NewSpendRuleRepository(db, db.logger),
		Transactions: NewTransactionRepository(db, db.logger),
		AuditLogs:    NewAuditRepository(db, db.logger),
	}
}
