package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agentrails/agent-wallet/middleware"
	"github.com/agentrails/agent-wallet/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a mock implementation of repositories.WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Update(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

// MockSpendRuleRepository is a mock implementation of repositories.SpendRuleRepository
type MockSpendRuleRepository struct {
	mock.Mock
}

func (m *MockSpendRuleRepository) Create(ctx context.Context, rule *models.SpendRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockSpendRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SpendRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpendRule), args.Error(1)
}

func (m *MockSpendRuleRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SpendRule), args.Error(1)
}

func (m *MockSpendRuleRepository) ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SpendRule), args.Error(1)
}

func (m *MockSpendRuleRepository) Update(ctx context.Context, rule *models.SpendRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockSpendRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repositories.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByStatus(ctx context.Context, walletID uuid.UUID, status models.TransactionStatus, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, walletID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumCompletedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (float64, error) {
	args := m.Called(ctx, walletID, since)
	return args.Get(0).(float64), args.Error(1)
}

// withOwner stamps an owner ID onto the request context
func withOwner(req *http.Request, ownerID uuid.UUID) *http.Request {
	ctx := middleware.WithOwnerID(req.Context(), ownerID)
	ctx = middleware.WithClaims(ctx, &middleware.Claims{Sub: ownerID.String(), Email: "owner@example.com"})
	return req.WithContext(ctx)
}

// withURLParam injects a chi route parameter for direct handler calls
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
