package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentrails/agent-wallet/auth"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueTokenRequest represents a development token request
type IssueTokenRequest struct {
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
	Email   string    `json:"email,omitempty" validate:"omitempty,email"`
}

// IssueTokenResponse carries a signed owner token
type IssueTokenResponse struct {
	Token string `json:"token"`
}

// AuthHandler issues owner tokens. In production deployments token
// issuance belongs to an external identity provider; this endpoint is
// only mounted in development.
type AuthHandler struct {
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		logger: logger,
	}
}

// HandleIssueToken handles POST /auth/token
func (h *AuthHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	token, err := h.tokens.Issue(req.OwnerID, req.Email)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("development token issued",
		zap.String("owner_id", req.OwnerID.String()))

	_ = utils.WriteOK(w, IssueTokenResponse{Token: token})
}
