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

// SpendRuleRepository implements the repositories.SpendRuleRepository interface
type SpendRuleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSpendRuleRepository creates a new spend rule repository
func NewSpendRuleRepository(db *DB, logger *zap.Logger) repositories.SpendRuleRepository {
	return &SpendRuleRepository{
		db:     db,
		logger: logger,
	}
}

const spendRuleColumns = "id, wallet_id, rule_type, parameters, priority, active, created_at, updated_at"

// Create creates a new spend rule
func (r *SpendRuleRepository) Create(ctx context.Context, rule *models.SpendRule) error {
	query := `
		INSERT INTO spend_rules (id, wallet_id, rule_type, parameters, priority, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.WalletID,
		rule.RuleType,
		rule.Parameters,
		rule.Priority,
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create spend rule: %w", err)
	}

	r.logger.Debug("spend rule created",
		zap.String("id", rule.ID.String()),
		zap.String("rule_type", string(rule.RuleType)))
	return nil
}

// GetByID retrieves a spend rule by ID
func (r *SpendRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SpendRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM spend_rules WHERE id = $1`, spendRuleColumns)

	rule := &models.SpendRule{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rule.ID,
		&rule.WalletID,
		&rule.RuleType,
		&rule.Parameters,
		&rule.Priority,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("spend rule not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get spend rule: %w", err)
	}

	return rule, nil
}

// GetByWalletID retrieves all rules for a wallet, active or not
func (r *SpendRuleRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM spend_rules
		WHERE wallet_id = $1
		ORDER BY priority DESC, id ASC
	`, spendRuleColumns)

	return r.queryRules(ctx, query, walletID)
}

// ListActiveByWallet retrieves the active rules for a wallet in evaluation
// order: priority descending, rule ID ascending on ties.
func (r *SpendRuleRepository) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM spend_rules
		WHERE wallet_id = $1 AND active = true
		ORDER BY priority DESC, id ASC
	`, spendRuleColumns)

	return r.queryRules(ctx, query, walletID)
}

// Update updates a spend rule
func (r *SpendRuleRepository) Update(ctx context.Context, rule *models.SpendRule) error {
	query := `
		UPDATE spend_rules
		SET rule_type = $2, parameters = $3, priority = $4, active = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.RuleType,
		rule.Parameters,
		rule.Priority,
		rule.Active,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update spend rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("spend rule not found: %s", rule.ID)
	}

	r.logger.Debug("spend rule updated", zap.String("id", rule.ID.String()))
	return nil
}

// Delete deletes a spend rule
func (r *SpendRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM spend_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spend rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("spend rule not found: %s", id)
	}

	r.logger.Debug("spend rule deleted", zap.String("id", id.String()))
	return nil
}

// queryRules executes a query returning spend rule rows
func (r *SpendRuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]*models.SpendRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spend rules: %w", err)
	}
	defer rows.Close()

	ruleSet := make([]*models.SpendRule, 0)
	for rows.Next() {
		rule := &models.SpendRule{}
		if err := rows.Scan(
			&rule.ID,
			&rule.WalletID,
			&rule.RuleType,
			&rule.Parameters,
			&rule.Priority,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spend rule: %w", err)
		}
		ruleSet = append(ruleSet, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ruleSet, nil
}
