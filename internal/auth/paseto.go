package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Both token kinds are encrypted with the same key, so every token
// carries a scope claim and the verifier rejects a scope mismatch.
// A pending signup token can never pass as a session token.
const (
	scopeSession = "session"
	scopeSignup  = "signup"
)

// SessionClaims are the claims carried by a session token. The token
// is self-describing: handlers trust these claims without a user lookup.
type SessionClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// SignupClaims carry unconfirmed signup data between the OTP-send and
// OTP-verify steps. The server never stores them; the client holds the
// token and presents it back with the code.
type SignupClaims struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IssuedAt     time.Time `json:"iat"`
	ExpiresAt    time.Time `json:"exp"`
}

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
	}, nil
}

// CreateSessionToken generates a session token for an authenticated user
func (s *PasetoService) CreateSessionToken(userID uuid.UUID, name, email string, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("scope", scopeSession)
	token.SetString("user_id", userID.String())
	token.SetString("name", name)
	token.SetString("email", email)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifySessionToken validates a session token and returns its claims
func (s *PasetoService) VerifySessionToken(tokenStr string) (*SessionClaims, error) {
	token, err := s.parse(tokenStr, scopeSession)
	if err != nil {
		return nil, err
	}

	userID, err := token.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidToken
	}

	name, err := token.GetString("name")
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		UserID:    userID,
		Name:      name,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// CreateSignupToken generates a pending signup token. The password is
// carried as an argon2id hash so the plaintext never leaves the
// send-otp request.
func (s *PasetoService) CreateSignupToken(name, email, passwordHash string, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("scope", scopeSignup)
	token.SetString("name", name)
	token.SetString("email", email)
	token.SetString("password_hash", passwordHash)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifySignupToken validates a pending signup token and returns its claims
func (s *PasetoService) VerifySignupToken(tokenStr string) (*SignupClaims, error) {
	token, err := s.parse(tokenStr, scopeSignup)
	if err != nil {
		return nil, err
	}

	name, err := token.GetString("name")
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	passwordHash, err := token.GetString("password_hash")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &SignupClaims{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IssuedAt:     issuedAt,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *PasetoService) parse(tokenStr, wantScope string) (*paseto.Token, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	scope, err := token.GetString("scope")
	if err != nil || scope != wantScope {
		return nil, ErrInvalidToken
	}

	return token, nil
}
