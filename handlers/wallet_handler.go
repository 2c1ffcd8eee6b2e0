package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services/audit"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateWalletRequest represents a request to create a wallet
type CreateWalletRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// UpdateWalletStatusRequest represents a request to change wallet status
type UpdateWalletStatusRequest struct {
	Status models.WalletStatus `json:"status" validate:"required,oneof=ACTIVE FROZEN CLOSED"`
}

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	wallets repositories.WalletRepository
	auditor *audit.Service
	logger  *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(wallets repositories.WalletRepository, auditor *audit.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		auditor: auditor,
		logger:  logger,
	}
}

// HandleCreateWallet handles POST /api/v1/wallets
func (h *WalletHandler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := middleware.GetOwnerIDFromContext(ctx)
	if ownerID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing owner information")
		return
	}

	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	wallet := models.NewWallet(ownerID, req.Name, req.Currency)
	if err := h.wallets.Create(ctx, wallet); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(models.NewAuditLog(wallet.ID, models.AuditActionWalletCreated, "wallet").
			WithResource(wallet.ID))
	}

	h.logger.Info("wallet created",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("owner_id", ownerID.String()))

	_ = utils.WriteCreated(w, wallet)
}

// HandleListWallets handles GET /api/v1/wallets
func (h *WalletHandler) HandleListWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := middleware.GetOwnerIDFromContext(ctx)
	if ownerID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Missing owner information")
		return
	}

	wallets, err := h.wallets.GetByOwnerID(ctx, ownerID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, wallets)
}

// HandleGetWallet handles GET /api/v1/wallets/{id}
func (h *WalletHandler) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid wallet ID format", nil)
		return
	}

	wallet, err := loadOwnedWallet(ctx, h.wallets, walletID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, wallet)
}

// HandleUpdateWalletStatus handles PATCH /api/v1/wallets/{id}/status
func (h *WalletHandler) HandleUpdateWalletStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid wallet ID format", nil)
		return
	}

	var req UpdateWalletStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	wallet, err := loadOwnedWallet(ctx, h.wallets, walletID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	wallet.Status = req.Status
	if err := h.wallets.Update(ctx, wallet); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("wallet status updated",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("status", string(req.Status)))

	_ = utils.WriteOK(w, wallet)
}
