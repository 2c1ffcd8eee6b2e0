package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services/transactions"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTransactionRequest represents an agent spend attempt
type CreateTransactionRequest struct {
	Amount      float64 `json:"amount" validate:"gte=0"`
	Category    string  `json:"category,omitempty" validate:"max=255"`
	RecipientID string  `json:"recipient_id,omitempty" validate:"max=255"`
	Description string  `json:"description,omitempty" validate:"max=1024"`
}

// TransactionResponse pairs the transaction with the policy decision
type TransactionResponse struct {
	Transaction *models.Transaction        `json:"transaction"`
	Evaluation  *transactionEvaluationView `json:"evaluation,omitempty"`
}

// transactionEvaluationView is the wire shape of an evaluation result
type transactionEvaluationView struct {
	Approved         bool        `json:"approved"`
	RequiresApproval bool        `json:"requires_approval"`
	Results          interface{} `json:"results"`
	EvaluatedAt      string      `json:"evaluated_at"`
}

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	service *transactions.Service
	wallets repositories.WalletRepository
	logger  *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service *transactions.Service, wallets repositories.WalletRepository, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		wallets: wallets,
		logger:  logger,
	}
}

// HandleCreateTransaction handles POST /api/v1/transactions
// The wallet is taken from the authenticated agent, never from the body;
// an agent can only spend against the wallet that issued its key.
func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agent := middleware.GetAgentFromContext(ctx)
	if agent == nil {
		_ = utils.WriteUnauthorized(w, "Agent authentication required")
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Create(ctx, transactions.CreateRequest{
		WalletID:    agent.WalletID,
		AgentID:     &agent.ID,
		Amount:      req.Amount,
		Category:    req.Category,
		RecipientID: req.RecipientID,
		Description: req.Description,
		RequestID:   middleware.GetRequestIDFromContext(ctx),
		IPAddress:   r.RemoteAddr,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, TransactionResponse{
		Transaction: result.Transaction,
		Evaluation: &transactionEvaluationView{
			Approved:         result.Evaluation.Approved,
			RequiresApproval: result.Evaluation.RequiresApproval,
			Results:          result.Evaluation.Results,
			EvaluatedAt:      result.Evaluation.EvaluatedAt.UTC().Format(time.RFC3339),
		},
	})
}

// HandleListTransactions handles GET /api/v1/wallets/{id}/transactions
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
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

	status := models.TransactionStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	list, err := h.service.List(ctx, walletID, status, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, list)
}

// HandleGetTransaction handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.loadOwnedTransaction(w, r)
	if err != nil {
		return
	}

	_ = utils.WriteOK(w, tx)
}

// HandleApproveTransaction handles POST /api/v1/transactions/{id}/approve
func (h *TransactionHandler) HandleApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve)
}

// HandleRejectTransaction handles POST /api/v1/transactions/{id}/reject
func (h *TransactionHandler) HandleRejectTransaction(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject)
}

// resolve applies a reviewer decision handler to {id}
func (h *TransactionHandler) resolve(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, id uuid.UUID, reviewer string) (*models.Transaction, error)) {
	ctx := r.Context()

	tx, err := h.loadOwnedTransaction(w, r)
	if err != nil {
		return
	}

	reviewer := ""
	if claims := middleware.GetClaimsFromContext(ctx); claims != nil {
		reviewer = claims.Email
		if reviewer == "" {
			reviewer = claims.Sub
		}
	}

	resolved, err := decide(ctx, tx.ID, reviewer)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, resolved)
}

// loadOwnedTransaction resolves {id}, fetches the transaction and checks
// wallet ownership, writing the error response itself on failure
func (h *TransactionHandler) loadOwnedTransaction(w http.ResponseWriter, r *http.Request) (*models.Transaction, error) {
	ctx := r.Context()

	txID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid transaction ID format", nil)
		return nil, err
	}

	tx, err := h.service.Get(ctx, txID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return nil, err
	}

	if _, err := loadOwnedWallet(ctx, h.wallets, tx.WalletID); err != nil {
		HandleServiceError(w, err, h.logger)
		return nil, err
	}

	return tx, nil
}

// queryInt parses an integer query parameter with a fallback
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
