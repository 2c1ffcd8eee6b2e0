package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/services/rules"
	"github.com/agentrails/agent-wallet/services/transactions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEngine is a mock implementation of transactions.PolicyEngine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Evaluate(ctx context.Context, walletID uuid.UUID, req rules.TransactionRequest) (*rules.EvaluationResult, error) {
	args := m.Called(ctx, walletID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rules.EvaluationResult), args.Error(1)
}

func withAgent(req *http.Request, agent *models.Agent) *http.Request {
	return req.WithContext(middleware.WithAgent(req.Context(), agent))
}

func TestHandleCreateTransaction(t *testing.T) {
	logger := zap.NewNop()
	wallet := models.NewWallet(uuid.New(), "ops", "USD")
	agent := models.NewAgent(wallet.ID, "billing-bot", "hash")

	t.Run("approved spend completes", func(t *testing.T) {
		engine := new(MockEngine)
		engine.On("Evaluate", mock.Anything, wallet.ID, rules.TransactionRequest{
			Amount:      42.50,
			Category:    "software",
			RecipientID: "vendor-1",
		}).Return(&rules.EvaluationResult{
			Approved:    true,
			Results:     []rules.RuleOutcome{},
			EvaluatedAt: time.Now(),
		}, nil)

		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		txRepo := new(MockTransactionRepository)
		txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.WalletID == wallet.ID && tx.Status == models.TransactionStatusCompleted
		})).Return(nil)

		service := transactions.NewService(engine, wallets, txRepo, nil, logger)
		handler := NewTransactionHandler(service, wallets, logger)

		body, _ := json.Marshal(CreateTransactionRequest{
			Amount:      42.50,
			Category:    "software",
			RecipientID: "vendor-1",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withAgent(req, agent)

		w := httptest.NewRecorder()
		handler.HandleCreateTransaction(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].(map[string]interface{})
		evaluation := data["evaluation"].(map[string]interface{})
		assert.Equal(t, true, evaluation["approved"])
		txRepo.AssertExpectations(t)
	})

	t.Run("rejected spend returns rejected status", func(t *testing.T) {
		engine := new(MockEngine)
		engine.On("Evaluate", mock.Anything, wallet.ID, mock.Anything).Return(&rules.EvaluationResult{
			Approved:    false,
			Results:     []rules.RuleOutcome{},
			EvaluatedAt: time.Now(),
		}, nil)

		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		txRepo := new(MockTransactionRepository)
		txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Status == models.TransactionStatusRejected
		})).Return(nil)

		service := transactions.NewService(engine, wallets, txRepo, nil, logger)
		handler := NewTransactionHandler(service, wallets, logger)

		body, _ := json.Marshal(CreateTransactionRequest{Amount: 9999})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
		req = withAgent(req, agent)

		w := httptest.NewRecorder()
		handler.HandleCreateTransaction(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].(map[string]interface{})
		tx := data["transaction"].(map[string]interface{})
		assert.Equal(t, "REJECTED", tx["status"])
	})

	t.Run("missing agent context", func(t *testing.T) {
		service := transactions.NewService(new(MockEngine), new(MockWalletRepository), new(MockTransactionRepository), nil, logger)
		handler := NewTransactionHandler(service, new(MockWalletRepository), logger)

		body, _ := json.Marshal(CreateTransactionRequest{Amount: 10})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))

		w := httptest.NewRecorder()
		handler.HandleCreateTransaction(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("negative amount rejected by validation", func(t *testing.T) {
		service := transactions.NewService(new(MockEngine), new(MockWalletRepository), new(MockTransactionRepository), nil, logger)
		handler := NewTransactionHandler(service, new(MockWalletRepository), logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions",
			bytes.NewReader([]byte(`{"amount": -10}`)))
		req = withAgent(req, agent)

		w := httptest.NewRecorder()
		handler.HandleCreateTransaction(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleApproveTransaction(t *testing.T) {
	logger := zap.NewNop()
	ownerID := uuid.New()
	wallet := models.NewWallet(ownerID, "ops", "USD")

	pending := models.NewTransaction(wallet.ID, 150)
	pending.Status = models.TransactionStatusPendingApproval

	t.Run("approve pending transaction", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		txRepo := new(MockTransactionRepository)
		txRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
		txRepo.On("UpdateStatus", mock.Anything, pending.ID, models.TransactionStatusCompleted).Return(nil)

		service := transactions.NewService(new(MockEngine), wallets, txRepo, nil, logger)
		handler := NewTransactionHandler(service, wallets, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+pending.ID.String()+"/approve", nil)
		req = withOwner(req, ownerID)
		req = withURLParam(req, "id", pending.ID.String())

		w := httptest.NewRecorder()
		handler.HandleApproveTransaction(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		txRepo.AssertExpectations(t)
	})

	t.Run("completed transaction conflicts", func(t *testing.T) {
		completed := models.NewTransaction(wallet.ID, 150)
		completed.Status = models.TransactionStatusCompleted

		wallets := new(MockWalletRepository)
		wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

		txRepo := new(MockTransactionRepository)
		txRepo.On("GetByID", mock.Anything, completed.ID).Return(completed, nil)

		service := transactions.NewService(new(MockEngine), wallets, txRepo, nil, logger)
		handler := NewTransactionHandler(service, wallets, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+completed.ID.String()+"/approve", nil)
		req = withOwner(req, ownerID)
		req = withURLParam(req, "id", completed.ID.String())

		w := httptest.NewRecorder()
		handler.HandleApproveTransaction(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandleListTransactions(t *testing.T) {
	logger := zap.NewNop()
	ownerID := uuid.New()
	wallet := models.NewWallet(ownerID, "ops", "USD")

	wallets := new(MockWalletRepository)
	wallets.On("GetByID", mock.Anything, wallet.ID).Return(wallet, nil)

	txRepo := new(MockTransactionRepository)
	txRepo.On("GetByWalletID", mock.Anything, wallet.ID, 50, 0).
		Return([]*models.Transaction{models.NewTransaction(wallet.ID, 10)}, nil)

	service := transactions.NewService(new(MockEngine), wallets, txRepo, nil, logger)
	handler := NewTransactionHandler(service, wallets, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+wallet.ID.String()+"/transactions", nil)
	req = withOwner(req, ownerID)
	req = withURLParam(req, "id", wallet.ID.String())

	w := httptest.NewRecorder()
	handler.HandleListTransactions(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
}
