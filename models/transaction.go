package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending         TransactionStatus = "PENDING"
	TransactionStatusPendingApproval TransactionStatus = "PENDING_APPROVAL"
	TransactionStatusCompleted       TransactionStatus = "COMPLETED"
	TransactionStatusRejected        TransactionStatus = "REJECTED"
	TransactionStatusFailed          TransactionStatus = "FAILED"
)

// Transaction represents a spend attempt by an agent against a wallet
type Transaction struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	WalletID    uuid.UUID         `json:"wallet_id" db:"wallet_id"`
	AgentID     *uuid.UUID        `json:"agent_id,omitempty" db:"agent_id"`
	Amount      float64           `json:"amount" db:"amount"`
	Category    *string           `json:"category,omitempty" db:"category"`
	RecipientID *string           `json:"recipient_id,omitempty" db:"recipient_id"`
	Description string            `json:"description" db:"description"`
	Status      TransactionStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a new pending Transaction instance
func NewTransaction(walletID uuid.UUID, amount float64) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		Amount:    amount,
		Status:    TransactionStatusPending,
		CreatedAt: time.Now(),
	}
}

// WithAgent sets the originating agent
func (t *Transaction) WithAgent(agentID uuid.UUID) *Transaction {
	t.AgentID = &agentID
	return t
}

// WithCategory sets the spend category tag
func (t *Transaction) WithCategory(category string) *Transaction {
	t.Category = &category
	return t
}

// WithRecipient sets the recipient identifier
func (t *Transaction) WithRecipient(recipientID string) *Transaction {
	t.RecipientID = &recipientID
	return t
}

// IsTerminal reports whether the transaction is in a final state
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusRejected, TransactionStatusFailed:
		return true
	}
	return false
}
