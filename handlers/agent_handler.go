package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentrails/agent-wallet/auth"
	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services/audit"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAgentRequest represents a request to register an agent
type CreateAgentRequest struct {
	WalletID uuid.UUID `json:"wallet_id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=255"`
}

// CreateAgentResponse carries the plaintext API key. This is the only
// time the key is ever returned; the server keeps just its hash.
type CreateAgentResponse struct {
	Agent  *models.Agent `json:"agent"`
	APIKey string        `json:"api_key"`
}

// AgentHandler handles agent-related HTTP requests
type AgentHandler struct {
	agents  repositories.AgentRepository
	wallets repositories.WalletRepository
	auditor *audit.Service
	logger  *zap.Logger
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(agents repositories.AgentRepository, wallets repositories.WalletRepository, auditor *audit.Service, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agents:  agents,
		wallets: wallets,
		auditor: auditor,
		logger:  logger,
	}
}

// HandleCreateAgent handles POST /api/v1/agents
func (h *AgentHandler) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if _, err := loadOwnedWallet(ctx, h.wallets, req.WalletID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	agent := models.NewAgent(req.WalletID, req.Name, auth.HashAPIKey(apiKey))
	if err := h.agents.Create(ctx, agent); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(models.NewAuditLog(req.WalletID, models.AuditActionAgentCreated, "agent").
			WithAgent(agent.ID).
			WithResource(agent.ID))
	}

	h.logger.Info("agent registered",
		zap.String("agent_id", agent.ID.String()),
		zap.String("wallet_id", req.WalletID.String()))

	_ = utils.WriteCreated(w, CreateAgentResponse{Agent: agent, APIKey: apiKey})
}

// HandleListAgents handles GET /api/v1/wallets/{id}/agents
func (h *AgentHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
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

	agents, err := h.agents.GetByWalletID(ctx, walletID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, agents)
}

// HandleDeactivateAgent handles DELETE /api/v1/agents/{id}
// Agents are never removed; deactivation revokes the API key while
// keeping the audit trail attributable.
func (h *AgentHandler) HandleDeactivateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid agent ID format", nil)
		return
	}

	agent, err := h.agents.GetByID(ctx, agentID)
	if err != nil {
		_ = utils.WriteNotFound(w, "agent not found")
		return
	}

	if _, err := loadOwnedWallet(ctx, h.wallets, agent.WalletID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	agent.Active = false
	if err := h.agents.Update(ctx, agent); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("agent deactivated",
		zap.String("agent_id", agent.ID.String()),
		zap.String("wallet_id", agent.WalletID.String()))

	utils.WriteNoContent(w)
}
