package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionRepository implements the repositories.TransactionRepository interface
type TransactionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB, logger *zap.Logger) repositories.TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

const transactionColumns = "id, wallet_id, agent_id, amount, category, recipient_id, description, status, created_at, completed_at"

// Create persists a new transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, wallet_id, agent_id, amount, category, recipient_id, description, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.WalletID,
		tx.AgentID,
		tx.Amount,
		tx.Category,
		tx.RecipientID,
		tx.Description,
		tx.Status,
		tx.CreatedAt,
		tx.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.logger.Debug("transaction created",
		zap.String("id", tx.ID.String()),
		zap.String("status", string(tx.Status)))
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	tx := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID,
		&tx.WalletID,
		&tx.AgentID,
		&tx.Amount,
		&tx.Category,
		&tx.RecipientID,
		&tx.Description,
		&tx.Status,
		&tx.CreatedAt,
		&tx.CompletedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// GetByWalletID retrieves transactions for a wallet with pagination, newest first
func (r *TransactionRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, transactionColumns)

	return r.queryTransactions(ctx, query, walletID, limit, offset)
}

// GetByStatus retrieves transactions for a wallet in a given status
func (r *TransactionRepository) GetByStatus(ctx context.Context, walletID uuid.UUID, status models.TransactionStatus, limit, offset int) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE wallet_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, transactionColumns)

	return r.queryTransactions(ctx, query, walletID, status, limit, offset)
}

// UpdateStatus moves a transaction to a new status. Terminal states also
// record completed_at.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $2,
		    completed_at = CASE WHEN $2 IN ('COMPLETED', 'REJECTED', 'FAILED') THEN $3 ELSE completed_at END
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}

	r.logger.Debug("transaction status updated",
		zap.String("id", id.String()),
		zap.String("status", string(status)))
	return nil
}

// SumCompletedSince returns the total amount of COMPLETED transactions on
// the wallet created at or after the cutoff
func (r *TransactionRepository) SumCompletedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE wallet_id = $1
		  AND status = 'COMPLETED'
		  AND created_at >= $2
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, walletID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum completed spend: %w", err)
	}

	return total, nil
}

// queryTransactions executes a query returning transaction rows
func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		tx := &models.Transaction{}
		if err := rows.Scan(
			&tx.ID,
			&tx.WalletID,
			&tx.AgentID,
			&tx.Amount,
			&tx.Category,
			&tx.RecipientID,
			&tx.Description,
			&tx.Status,
			&tx.CreatedAt,
			&tx.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return transactions, nil
}
