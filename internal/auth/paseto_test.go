package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPasetoService(t *testing.T) *PasetoService {
	t.Helper()
	svc, err := NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return svc
}

func TestNewPasetoService_RejectsBadKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too-short"))
	require.Error(t, err)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	svc := newTestPasetoService(t)
	userID := uuid.New()

	token, err := svc.CreateSessionToken(userID, "Ann", "ann@x.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestSessionToken_Expired(t *testing.T) {
	svc := newTestPasetoService(t)

	token, err := svc.CreateSessionToken(uuid.New(), "Ann", "ann@x.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifySessionToken(token)
	require.Error(t, err)
}

func TestSessionToken_WrongKey(t *testing.T) {
	svc := newTestPasetoService(t)
	other, err := NewPasetoService([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	token, err := svc.CreateSessionToken(uuid.New(), "Ann", "ann@x.com", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifySessionToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_Garbage(t *testing.T) {
	svc := newTestPasetoService(t)

	_, err := svc.VerifySessionToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignupToken_RoundTrip(t *testing.T) {
	svc := newTestPasetoService(t)

	token, err := svc.CreateSignupToken("Ann", "ann@x.com", "$argon2id$...", 10*time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifySignupToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, "$argon2id$...", claims.PasswordHash)
}

func TestSignupToken_Expired(t *testing.T) {
	svc := newTestPasetoService(t)

	token, err := svc.CreateSignupToken("Ann", "ann@x.com", "hash", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifySignupToken(token)
	require.Error(t, err)
}

func TestTokenScopes_NotInterchangeable(t *testing.T) {
	svc := newTestPasetoService(t)

	signup, err := svc.CreateSignupToken("Ann", "ann@x.com", "hash", 10*time.Minute)
	require.NoError(t, err)
	session, err := svc.CreateSessionToken(uuid.New(), "Ann", "ann@x.com", time.Hour)
	require.NoError(t, err)

	// A pending signup token must never authenticate a request, and a
	// session token must never complete a signup.
	_, err = svc.VerifySessionToken(signup)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifySignupToken(session)
	require.ErrorIs(t, err, ErrInvalidToken)
}
