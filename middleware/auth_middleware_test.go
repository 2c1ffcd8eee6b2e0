package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentrails/agent-wallet/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	args := m.Called(ctx, token)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAgentRepository is a mock implementation of repositories.AgentRepository
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	args := m.Called(ctx, agent)
	return args.Error(0)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if agent := args.Get(0); agent != nil {
		return agent.(*models.Agent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentRepository) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.Agent, error) {
	args := m.Called(ctx, apiKeyHash)
	if agent := args.Get(0); agent != nil {
		return agent.(*models.Agent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]*models.Agent, error) {
	args := m.Called(ctx, walletID)
	if agents := args.Get(0); agents != nil {
		return agents.([]*models.Agent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAgentRepository) Update(ctx context.Context, agent *models.Agent) error {
	args := m.Called(ctx, agent)
	return args.Error(0)
}

func echoHandler(captured *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = r.Context()
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware(new(MockTokenValidator), zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAuth(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	validator := new(MockTokenValidator)
	validator.On("ValidateToken", mock.Anything, "bad-token").Return(nil, assert.AnError)

	m := NewAuthMiddleware(validator, zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAuth(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ownerID := uuid.New()
	validator := new(MockTokenValidator)
	validator.On("ValidateToken", mock.Anything, "good-token").Return(&Claims{
		Sub:   ownerID.String(),
		Email: "owner@example.com",
	}, nil)

	m := NewAuthMiddleware(validator, zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAuth(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	claims := GetClaimsFromContext(ctx)
	require.NotNil(t, claims)
	assert.Equal(t, ownerID.String(), claims.Sub)
	assert.Equal(t, ownerID, GetOwnerIDFromContext(ctx))
}

func TestRequireAuth_NonUUIDSubject(t *testing.T) {
	validator := new(MockTokenValidator)
	validator.On("ValidateToken", mock.Anything, "good-token").Return(&Claims{
		Sub: "not-a-uuid",
	}, nil)

	m := NewAuthMiddleware(validator, zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAuth(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAgent_MissingKey(t *testing.T) {
	m := NewAPIKeyMiddleware(new(MockAgentRepository), zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAgent(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAgent_UnknownKey(t *testing.T) {
	agents := new(MockAgentRepository)
	agents.On("GetByAPIKeyHash", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	m := NewAPIKeyMiddleware(agents, zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAgent(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.Header.Set(APIKeyHeader, "awk_unknown")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAgent_ValidKey(t *testing.T) {
	agent := models.NewAgent(uuid.New(), "billing-bot", "hash")

	agents := new(MockAgentRepository)
	agents.On("GetByAPIKeyHash", mock.Anything, mock.Anything).Return(agent, nil)

	m := NewAPIKeyMiddleware(agents, zaptest.NewLogger(t))

	var ctx context.Context
	handler := m.RequireAgent(echoHandler(&ctx))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.Header.Set(APIKeyHeader, "awk_valid")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := GetAgentFromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, agent.ID, got.ID)
}
