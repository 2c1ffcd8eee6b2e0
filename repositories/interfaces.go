package repositories

import (
	"context"
	"time"

	"github.com/agentrails/agent-wallet/models"
	"github.com/google/uuid"
)

// WalletRepository handles wallet data operations
type WalletRepository interface {
	// Create creates a new wallet
	Create(ctx context.Context, wallet *models.Wallet) error

	// GetByID retrieves a wallet by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)

	// GetByOwnerID retrieves all wallets for an owner
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Wallet, error)

	// Update updates a wallet
	Update(ctx context.Context, wallet *models.Wallet) error
}

// AgentRepository handles agent data operations
type AgentRepository interface {
	// Create creates a new agent
	Create(ctx context.Context, agent *models.Agent) error

	// GetByID retrieves an agent by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)

	// GetByAPIKeyHash retrieves an active agent by API key hash
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.Agent, error)

	// GetByWalletID retrieves all agents for a wallet
	GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.Agent, error)

	// Update updates an agent
	Update(ctx context.Context, agent *models.Agent) error
}

// SpendRuleRepository handles spend rule data operations
type SpendRuleRepository interface {
	// Create creates a new spend rule
	Create(ctx context.Context, rule *models.SpendRule) error

	// GetByID retrieves a spend rule by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.SpendRule, error)

	// GetByWalletID retrieves all rules for a wallet, active or not
	GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error)

	// ListActiveByWallet retrieves the active rules for a wallet ordered by
	// priority descending with rule ID ascending as the tie-break. This is
	// the ordering the policy engine evaluates and reports in.
	ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error)

	// Update updates a spend rule
	Update(ctx context.Context, rule *models.SpendRule) error

	// Delete deletes a spend rule
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository handles transaction data operations
type TransactionRepository interface {
	// Create persists a new transaction
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)

	// GetByWalletID retrieves transactions for a wallet with pagination,
	// newest first
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.Transaction, error)

	// GetByStatus retrieves transactions for a wallet in a given status
	GetByStatus(ctx context.Context, walletID uuid.UUID, status models.TransactionStatus, limit, offset int) ([]*models.Transaction, error)

	// UpdateStatus moves a transaction to a new status, setting completed_at
	// for terminal states
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error

	// SumCompletedSince returns the total amount of COMPLETED transactions
	// on the wallet created at or after the cutoff. This is the spend
	// aggregation the limit-window rules depend on.
	SumCompletedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (float64, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByID retrieves an audit log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)

	// GetByWalletID retrieves audit logs for a wallet with pagination,
	// newest first
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)

	// GetByResourceID retrieves audit logs for a specific resource
	GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Wallets      WalletRepository
	Agents       AgentRepository
	SpendRules   SpendRuleRepository
	Transactions TransactionRepository
	AuditLogs    AuditRepository
}
