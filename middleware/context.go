package middleware

import (
	"context"

	"github.com/agentrails/agent-wallet/models"
	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// AgentKey is the context key for the authenticated agent
	AgentKey contextKey = "agent"

	// OwnerIDKey is the context key for the owner ID
	OwnerIDKey contextKey = "owner_id"
)

// Claims represents JWT claims extracted from an owner token
type Claims = models.Claims

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetAgentFromContext retrieves the authenticated agent from context
func GetAgentFromContext(ctx context.Context) *models.Agent {
	if val := ctx.Value(AgentKey); val != nil {
		if agent, ok := val.(*models.Agent); ok {
			return agent
		}
	}
	return nil
}

// WithAgent adds the authenticated agent to the context
func WithAgent(ctx context.Context, agent *models.Agent) context.Context {
	return context.WithValue(ctx, AgentKey, agent)
}

// GetOwnerIDFromContext retrieves the owner ID from context
func GetOwnerIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(OwnerIDKey); val != nil {
		if ownerID, ok := val.(uuid.UUID); ok {
			return ownerID
		}
	}
	return uuid.Nil
}

// WithOwnerID adds an owner ID to the context
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}
