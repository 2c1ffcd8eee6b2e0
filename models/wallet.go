package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletStatus represents the lifecycle state of a wallet
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "ACTIVE"
	WalletStatusFrozen WalletStatus = "FROZEN"
	WalletStatusClosed WalletStatus = "CLOSED"
)

// Wallet represents a funding source an agent spends against
type Wallet struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	OwnerID   uuid.UUID    `json:"owner_id" db:"owner_id"`
	Name      string       `json:"name" db:"name"`
	Currency  string       `json:"currency" db:"currency"`
	Status    WalletStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Wallet model
func (Wallet) TableName() string {
	return "wallets"
}

// NewWallet creates a new active Wallet instance
func NewWallet(ownerID uuid.UUID, name, currency string) *Wallet {
	now := time.Now()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Currency:  currency,
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanSpend reports whether the wallet accepts new transactions
func (w *Wallet) CanSpend() bool {
	return w.Status == WalletStatusActive
}
