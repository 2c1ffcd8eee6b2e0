package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services"
	"github.com/agentrails/agent-wallet/services/audit"
	"github.com/agentrails/agent-wallet/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRuleRequest represents a request to create a spend rule
type CreateRuleRequest struct {
	RuleType   models.RuleType `json:"rule_type" validate:"required"`
	Parameters json.RawMessage `json:"parameters" validate:"required"`
	Priority   int             `json:"priority" validate:"gte=0"`
}

// UpdateRuleRequest represents a request to update a spend rule
type UpdateRuleRequest struct {
	Parameters *json.RawMessage `json:"parameters,omitempty"`
	Priority   *int             `json:"priority,omitempty" validate:"omitempty,gte=0"`
	Active     *bool            `json:"active,omitempty"`
}

// RuleHandler handles spend rule HTTP requests
type RuleHandler struct {
	rules   repositories.SpendRuleRepository
	wallets repositories.WalletRepository
	auditor *audit.Service
	logger  *zap.Logger
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(rules repositories.SpendRuleRepository, wallets repositories.WalletRepository, auditor *audit.Service, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{
		rules:   rules,
		wallets: wallets,
		auditor: auditor,
		logger:  logger,
	}
}

// HandleCreateRule handles POST /api/v1/wallets/{id}/rules
// Parameters are validated against the rule type at creation time so the
// engine never sees a malformed rule it did not choose to tolerate.
func (h *RuleHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
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

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := models.ValidateRuleParameters(req.RuleType, req.Parameters); err != nil {
		HandleServiceError(w, services.ErrInvalidRuleParameters.WithDetail("reason", err.Error()), h.logger)
		return
	}

	rule := models.NewSpendRule(walletID, req.RuleType, req.Parameters, req.Priority)
	if err := h.rules.Create(ctx, rule); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(models.NewAuditLog(walletID, models.AuditActionRuleCreated, "spend_rule").
			WithResource(rule.ID).
			WithDetails(map[string]interface{}{
				"rule_type": rule.RuleType,
				"priority":  rule.Priority,
			}))
	}

	h.logger.Info("spend rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("wallet_id", walletID.String()),
		zap.String("rule_type", string(req.RuleType)))

	_ = utils.WriteCreated(w, rule)
}

// HandleListRules handles GET /api/v1/wallets/{id}/rules
func (h *RuleHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
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

	rules, err := h.rules.GetByWalletID(ctx, walletID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, rules)
}

// HandleGetRule handles GET /api/v1/rules/{id}
func (h *RuleHandler) HandleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.loadOwnedRule(w, r)
	if err != nil {
		return
	}

	_ = utils.WriteOK(w, rule)
}

// HandleUpdateRule handles PATCH /api/v1/rules/{id}
func (h *RuleHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rule, err := h.loadOwnedRule(w, r)
	if err != nil {
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if req.Parameters != nil {
		if err := models.ValidateRuleParameters(rule.RuleType, *req.Parameters); err != nil {
			HandleServiceError(w, services.ErrInvalidRuleParameters.WithDetail("reason", err.Error()), h.logger)
			return
		}
		rule.Parameters = *req.Parameters
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := h.rules.Update(ctx, rule); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(models.NewAuditLog(rule.WalletID, models.AuditActionRuleUpdated, "spend_rule").
			WithResource(rule.ID))
	}

	_ = utils.WriteOK(w, rule)
}

// HandleDeleteRule handles DELETE /api/v1/rules/{id}
func (h *RuleHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rule, err := h.loadOwnedRule(w, r)
	if err != nil {
		return
	}

	if err := h.rules.Delete(ctx, rule.ID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(models.NewAuditLog(rule.WalletID, models.AuditActionRuleDeleted, "spend_rule").
			WithResource(rule.ID).
			WithDetails(map[string]interface{}{"rule_type": rule.RuleType}))
	}

	h.logger.Info("spend rule deleted",
		zap.String("rule_id", rule.ID.String()),
		zap.String("wallet_id", rule.WalletID.String()))

	utils.WriteNoContent(w)
}

// loadOwnedRule resolves {id}, fetches the rule and checks wallet
// ownership, writing the error response itself on failure
func (h *RuleHandler) loadOwnedRule(w http.ResponseWriter, r *http.Request) (*models.SpendRule, error) {
	ctx := r.Context()

	ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid rule ID format", nil)
		return nil, err
	}

	rule, err := h.rules.GetByID(ctx, ruleID)
	if err != nil {
		_ = utils.WriteNotFound(w, "spend rule not found")
		return nil, err
	}

	if _, err := loadOwnedWallet(ctx, h.wallets, rule.WalletID); err != nil {
		HandleServiceError(w, err, h.logger)
		return nil, err
	}

	return rule, nil
}
