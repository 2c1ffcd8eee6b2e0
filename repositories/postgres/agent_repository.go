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

// AgentRepository implements the repositories.AgentRepository interface
type AgentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *DB, logger *zap.Logger) repositories.AgentRepository {
	return &AgentRepository{
		db:     db,
		logger: logger,
	}
}

const agentColumns = "id, wallet_id, name, api_key_hash, active, created_at, updated_at"

// Create creates a new agent
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (id, wallet_id, name, api_key_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		agent.ID,
		agent.WalletID,
		agent.Name,
		agent.APIKeyHash,
		agent.Active,
		agent.CreatedAt,
		agent.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	r.logger.Debug("agent created", zap.String("id", agent.ID.String()))
	return nil
}

// GetByID retrieves an agent by ID
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE id = $1`, agentColumns)
	return r.scanAgent(r.db.QueryRowContext(ctx, query, id), id.String())
}

// GetByAPIKeyHash retrieves an active agent by API key hash
func (r *AgentRepository) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.Agent, error) {
	query := fmt.Sprintf(`SELECT %s FROM agents WHERE api_key_hash = $1 AND active = true`, agentColumns)
	return r.scanAgent(r.db.QueryRowContext(ctx, query, apiKeyHash), "api key")
}

// GetByWalletID retrieves all agents for a wallet
func (r *AgentRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.Agent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM agents
		WHERE wallet_id = $1
		ORDER BY created_at DESC
	`, agentColumns)

	rows, err := r.db.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]*models.Agent, 0)
	for rows.Next() {
		agent := &models.Agent{}
		if err := rows.Scan(
			&agent.ID,
			&agent.WalletID,
			&agent.Name,
			&agent.APIKeyHash,
			&agent.Active,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return agents, nil
}

// Update updates an agent
func (r *AgentRepository) Update(ctx context.Context, agent *models.Agent) error {
	query := `
		UPDATE agents
		SET name = $2, api_key_hash = $3, active = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		agent.ID,
		agent.Name,
		agent.APIKeyHash,
		agent.Active,
		agent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("agent not found: %s", agent.ID)
	}

	r.logger.Debug("agent updated", zap.String("id", agent.ID.String()))
	return nil
}

// scanAgent scans a single agent row
func (r *AgentRepository) scanAgent(row *sql.Row, ref string) (*models.Agent, error) {
	agent := &models.Agent{}
	err := row.Scan(
		&agent.ID,
		&agent.WalletID,
		&agent.Name,
		&agent.APIKeyHash,
		&agent.Active,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("agent not found: %s", ref)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return agent, nil
}
