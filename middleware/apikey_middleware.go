package middleware

import (
	"net/http"

	"github.com/agentrails/agent-wallet/auth"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/utils"
	"go.uber.org/zap"
)

// APIKeyHeader is the header agents authenticate with
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware authenticates agents by API key. Keys are stored
// hashed; the lookup only ever sees the sha256 of the presented key.
type APIKeyMiddleware struct {
	agents repositories.AgentRepository
	logger *zap.Logger
}

// NewAPIKeyMiddleware creates a new APIKeyMiddleware
func NewAPIKeyMiddleware(agents repositories.AgentRepository, logger *zap.Logger) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		agents: agents,
		logger: logger,
	}
}

// RequireAgent is a middleware that requires a valid agent API key
func (m *APIKeyMiddleware) RequireAgent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			m.logger.Warn("missing API key",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing API key")
			return
		}

		agent, err := m.agents.GetByAPIKeyHash(ctx, auth.HashAPIKey(key))
		if err != nil {
			m.logger.Warn("API key lookup failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid API key")
			return
		}

		ctx = WithAgent(ctx, agent)

		m.logger.Debug("agent authenticated",
			zap.String("request_id", requestID),
			zap.String("agent_id", agent.ID.String()),
			zap.String("wallet_id", agent.WalletID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
