package jwt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewManager("test-secret", 60)
	userID := uuid.New()

	token, err := m.GenerateToken(userID, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", 60).GenerateToken(uuid.New(), "bob@example.com")
	require.NoError(t, err)

	_, err = NewManager("secret-b", 60).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -1)
	token, err := m.GenerateToken(uuid.New(), "carol@example.com")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := NewManager("test-secret", 60).ValidateToken("not.a.token")
	assert.Error(t, err)
}
