package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passari/web-ui/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	user := &domain.User{ID: 42, Roles: []domain.Role{{Name: "admin"}}}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	session, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, session.UserID)
	assert.Equal(t, []string{"admin"}, session.Roles)
	assert.WithinDuration(t, exp, session.ExpiresAt, time.Second)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).GenerateToken(&domain.User{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	tm.ttl = -time.Minute

	token, _, err := tm.GenerateToken(&domain.User{ID: 1})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.NoError(t, ComparePassword(hash, "hunter2"))
	assert.Error(t, ComparePassword(hash, "hunter3"))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.NoError(t, ValidatePassword("long enough"))
}
