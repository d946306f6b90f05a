package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndVerify(t *testing.T) {
	tm := NewTokenManager("super-secret", 1)
	userId := uuid.New()

	token, err := tm.Generate(userId, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userId, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenManager_RejectsTamperedSecret(t *testing.T) {
	tm := NewTokenManager("correct-secret", 1)
	token, err := tm.Generate(uuid.New(), "alice")
	require.NoError(t, err)

	other := NewTokenManager("wrong-secret", 1)
	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := &TokenManager{secretKey: "secret", expireDur: -time.Hour}
	token, err := tm.Generate(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}
