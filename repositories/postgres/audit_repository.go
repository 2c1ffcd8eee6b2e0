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

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

const auditColumns = "id, wallet_id, agent_id, action, resource_type, resource_id, details, request_id, ip_address, timestamp"

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, wallet_id, agent_id, action, resource_type, resource_id, details, request_id, ip_address, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.WalletID,
		log.AgentID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.Details,
		log.RequestID,
		log.IPAddress,
		log.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE id = $1`, auditColumns)

	log := &models.AuditLog{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.WalletID,
		&log.AgentID,
		&log.Action,
		&log.ResourceType,
		&log.ResourceID,
		&log.Details,
		&log.RequestID,
		&log.IPAddress,
		&log.Timestamp,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("audit log not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}

	return log, nil
}

// GetByWalletID retrieves audit logs for a wallet with pagination, newest first
func (r *AuditRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE wallet_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`, auditColumns)

	return r.queryLogs(ctx, query, walletID, limit, offset)
}

// GetByResourceID retrieves audit logs for a specific resource
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE resource_id = $1
		ORDER BY timestamp DESC
	`, auditColumns)

	return r.queryLogs(ctx, query, resourceID)
}

// queryLogs executes a query returning audit log rows
func (r *AuditRepository) queryLogs(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		if err := rows.Scan(
			&log.ID,
			&log.WalletID,
			&log.AgentID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.Details,
			&log.RequestID,
			&log.IPAddress,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}
