package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWallet_CanSpend(t *testing.T) {
	wallet := NewWallet(uuid.New(), "ops", "USD")
	assert.True(t, wallet.CanSpend())

	wallet.Status = WalletStatusFrozen
	assert.False(t, wallet.CanSpend())

	wallet.Status = WalletStatusClosed
	assert.False(t, wallet.CanSpend())
}

func TestTransaction_IsTerminal(t *testing.T) {
	tx := NewTransaction(uuid.New(), 42.50)
	assert.Equal(t, TransactionStatusPending, tx.Status)
	assert.False(t, tx.IsTerminal())

	tx.Status = TransactionStatusPendingApproval
	assert.False(t, tx.IsTerminal())

	for _, status := range []TransactionStatus{
		TransactionStatusCompleted,
		TransactionStatusRejected,
		TransactionStatusFailed,
	} {
		tx.Status = status
		assert.True(t, tx.IsTerminal(), string(status))
	}
}

func TestTransaction_Builders(t *testing.T) {
	agentID := uuid.New()
	tx := NewTransaction(uuid.New(), 10).
		WithAgent(agentID).
		WithCategory("software").
		WithRecipient("vendor-1")

	assert.Equal(t, &agentID, tx.AgentID)
	assert.Equal(t, "software", *tx.Category)
	assert.Equal(t, "vendor-1", *tx.RecipientID)
}
