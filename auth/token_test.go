package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	manager := NewTokenManager("test-secret", "agent-wallet", time.Hour)
	ownerID := uuid.New()

	token, err := manager.Issue(ownerID, "owner@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ownerID.String(), claims.Sub)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "agent-wallet", claims.Iss)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "agent-wallet", time.Hour)
	verifier := NewTokenManager("secret-b", "agent-wallet", time.Hour)

	token, err := issuer.Issue(uuid.New(), "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	issuer := NewTokenManager("test-secret", "someone-else", time.Hour)
	verifier := NewTokenManager("test-secret", "agent-wallet", time.Hour)

	token, err := issuer.Issue(uuid.New(), "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("test-secret", "agent-wallet", -time.Minute)

	token, err := manager.Issue(uuid.New(), "")
	require.NoError(t, err)

	_, err = manager.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", "agent-wallet", time.Hour)

	_, err := manager.ValidateToken(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestGenerateAPIKey(t *testing.T) {
	key1, err := GenerateAPIKey()
	require.NoError(t, err)
	key2, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key1, "awk_"))
	assert.NotEqual(t, key1, key2)
	assert.Len(t, key1, len("awk_")+64)
}

func TestHashAPIKey(t *testing.T) {
	hash := HashAPIKey("awk_example")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashAPIKey("awk_example"))
	assert.NotEqual(t, hash, HashAPIKey("awk_other"))
}
