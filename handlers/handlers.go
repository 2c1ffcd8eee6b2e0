package handlers

import (
	"context"

	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services"
	"github.com/google/uuid"
)

// loadOwnedWallet fetches a wallet and verifies the authenticated owner
// controls it. Cross-tenant lookups return not found rather than
// forbidden so wallet IDs are not probeable.
func loadOwnedWallet(ctx context.Context, wallets repositories.WalletRepository, walletID uuid.UUID) (*models.Wallet, error) {
	wallet, err := wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "wallet not found", err)
	}

	ownerID := middleware.GetOwnerIDFromContext(ctx)
	if ownerID == uuid.Nil || wallet.OwnerID != ownerID {
		return nil, services.ErrWalletNotFound
	}

	return wallet, nil
}
