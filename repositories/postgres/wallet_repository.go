package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletRepository implements the repositories.WalletRepository interface
type WalletRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *DB, logger *zap.Logger) repositories.WalletRepository {
	return &WalletRepository{
		db:     db,
		logger: logger,
	}
}

const walletColumns = "id, owner_id, name, currency, status, created_at, updated_at"

// Create creates a new wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	query := `
		INSERT INTO wallets (id, owner_id, name, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.OwnerID,
		wallet.Name,
		wallet.Currency,
		wallet.Status,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	r.logger.Debug("wallet created", zap.String("id", wallet.ID.String()))
	return nil
}

// GetByID retrieves a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE id = $1`, walletColumns)

	wallet := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&wallet.ID,
		&wallet.OwnerID,
		&wallet.Name,
		&wallet.Currency,
		&wallet.Status,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("wallet not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return wallet, nil
}

// GetByOwnerID retrieves all wallets for an owner
func (r *WalletRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Wallet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM wallets
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, walletColumns)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]*models.Wallet, 0)
	for rows.Next() {
		wallet := &models.Wallet{}
		if err := rows.Scan(
			&wallet.ID,
			&wallet.OwnerID,
			&wallet.Name,
			&wallet.Currency,
			&wallet.Status,
			&wallet.CreatedAt,
			&wallet.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return wallets, nil
}

// Update updates a wallet
func (r *WalletRepository) Update(ctx context.Context, wallet *models.Wallet) error {
	query := `
		UPDATE wallets
		SET name = $2, currency = $3, status = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.Name,
		wallet.Currency,
		wallet.Status,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("wallet not found: %s", wallet.ID)
	}

	r.logger.Debug("wallet updated", zap.String("id", wallet.ID.String()))
	return nil
}
