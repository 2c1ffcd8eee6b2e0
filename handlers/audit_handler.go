package handlers

import (
	"net/http"

	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	auditLogs repositories.AuditRepository
	wallets   repositories.WalletRepository
	logger    *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditLogs repositories.AuditRepository, wallets repositories.WalletRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditLogs: auditLogs,
		wallets:   wallets,
		logger:    logger,
	}
}

// HandleListAuditLogs handles GET /api/v1/wallets/{id}/audit
func (h *AuditHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid wallet ID format", nil)
		return
	}

	if _, err := loadOwnedWallet(ctx, h.wallets, walletID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	logs, err := h.auditLogs.GetByWalletID(ctx, walletID, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, logs)
}
