package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentrails/agent-wallet/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestHandleCreateRule(t *testing.T) {
	logger := zap.NewNop()
	ownerID := uuid.New()
	wallet := models.NewWallet(ownerID, "ops", "USD")

	newRequest := func(body []byte) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+wallet.ID.String()+"/rules", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withOwner(req, ownerID)
		return withURLParam(req, "id", wallet.ID.String())
	}

	t.Run("successful creation", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		rules := new(MockSpendRuleRepository)
		rules.On("Create", mock.Anything, mock.MatchedBy(func(r *models.SpendRule) bool {
			return r.WalletID == wallet.ID && r.RuleType == models.RuleTypeDailyLimit && r.Priority == 10
		})).Return(nil)

		handler := NewRuleHandler(rules, wallets, nil, logger)

		body, _ := json.Marshal(CreateRuleRequest{
			RuleType:   models.RuleTypeDailyLimit,
			Parameters: json.RawMessage(`{"limit": 500}`),
			Priority:   10,
		})

		w := httptest.NewRecorder()
		handler.HandleCreateRule(w, newRequest(body))

		assert.Equal(t, http.StatusCreated, w.Code)
		rules.AssertExpectations(t)
	})

	t.Run("malformed parameters rejected", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		handler := NewRuleHandler(new(MockSpendRuleRepository), wallets, nil, logger)

		body, _ := json.Marshal(CreateRuleRequest{
			RuleType:   models.RuleTypeDailyLimit,
			Parameters: json.RawMessage(`{"limit": -5}`),
			Priority:   10,
		})

		w := httptest.NewRecorder()
		handler.HandleCreateRule(w, newRequest(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown rule type rejected at creation", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		handler := NewRuleHandler(new(MockSpendRuleRepository), wallets, nil, logger)

		body, _ := json.Marshal(CreateRuleRequest{
			RuleType:   models.RuleType("CRYPTO_ONLY"),
			Parameters: json.RawMessage(`{}`),
		})

		w := httptest.NewRecorder()
		handler.HandleCreateRule(w, newRequest(body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("foreign wallet returns not found", func(t *testing.T) {
		foreign := models.NewWallet(uuid.New(), "not-yours", "USD")

		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, foreign.ID).Return(foreign, nil)

		handler := NewRuleHandler(new(MockSpendRuleRepository), wallets, nil, logger)

		body, _ := json.Marshal(CreateRuleRequest{
			RuleType:   models.RuleTypeDailyLimit,
			Parameters: json.RawMessage(`{"limit": 500}`),
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+foreign.ID.String()+"/rules", bytes.NewReader(body))
		req = withOwner(req, ownerID)
		req = withURLParam(req, "id", foreign.ID.String())

		w := httptest.NewRecorder()
		handler.HandleCreateRule(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleUpdateRule(t *testing.T) {
	logger := zap.NewNop()
	ownerID := uuid.New()
	wallet := models.NewWallet(ownerID, "ops", "USD")
	rule := models.NewSpendRule(wallet.ID, models.RuleTypeDailyLimit, json.RawMessage(`{"limit": 500}`), 10)

	t.Run("deactivate rule", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		rules := new(MockSpendRuleRepository)
		rules.On("GetByID", mock.Anything, rule.ID).Return(rule, nil)
		rules.On("Update", mock.Anything, mock.MatchedBy(func(r *models.SpendRule) bool {
			return !r.Active
		})).Return(nil)

		handler := NewRuleHandler(rules, wallets, nil, logger)

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rules/"+rule.ID.String(),
			bytes.NewReader([]byte(`{"active": false}`)))
		req = withOwner(req, ownerID)
		req = withURLParam(req, "id", rule.ID.String())

		w := httptest.NewRecorder()
		handler.HandleUpdateRule(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		rules.AssertExpectations(t)
	})

	t.Run("invalid replacement parameters rejected", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		rules := new(MockSpendRuleRepository)
		rules.On("GetByID", mock.Anything, rule.ID).Return(rule, nil)

		handler := NewRuleHandler(rules, wallets, nil, logger)

		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rules/"+rule.ID.String(),
			bytes.NewReader([]byte(`{"parameters": {"limit": 0}}`)))
		req = withOwner(req, ownerID)
		req = withURLParam(req, "id", rule.ID.String())

		w := httptest.NewRecorder()
		handler.HandleUpdateRule(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDeleteRule(t *testing.T) {
	logger := zap.NewNop()
	ownerID := uuid.New()
	wallet := models.NewWallet(ownerID, "ops", "USD")
	rule := models.NewSpendRule(wallet.ID, models.RuleTypeDailyLimit, json.RawMessage(`{"limit": 500}`), 10)

	wallets := new(MockWalletRepository)
	wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

	rules := new(MockSpendRuleRepository)
	rules.On("GetByID", mock.Anything, rule.ID).Return(rule, nil)
	rules.On("Delete", mock.Anything, rule.ID).Return(nil)

	handler := NewRuleHandler(rules, wallets, nil, logger)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/rules/"+rule.ID.String(), nil)
	req = withOwner(req, ownerID)
	req = withURLParam(req, "id", rule.ID.String())

	w := httptest.NewRecorder()
	handler.HandleDeleteRule(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	rules.AssertExpectations(t)
}
