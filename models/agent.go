package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent represents an autonomous process holding delegated spending
// authority against a wallet. Agents authenticate with an API key; only
// the SHA-256 hash of the key is stored.
type Agent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	WalletID   uuid.UUID `json:"wallet_id" db:"wallet_id"`
	Name       string    `json:"name" db:"name"`
	APIKeyHash string    `json:"-" db:"api_key_hash"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Agent model
func (Agent) TableName() string {
	return "agents"
}

// NewAgent creates a new active Agent instance bound to a wallet
func NewAgent(walletID uuid.UUID, name, apiKeyHash string) *Agent {
	now := time.Now()
	return &Agent{
		ID:         uuid.New(),
		WalletID:   walletID,
		Name:       name,
		APIKeyHash: apiKeyHash,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
