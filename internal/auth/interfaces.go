package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notes-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// PasetoService (PASETO v4.local) is the production implementation.
type TokenService interface {
	CreateSessionToken(userID uuid.UUID, name, email string, duration time.Duration) (string, error)
	VerifySessionToken(tokenStr string) (*SessionClaims, error)
	CreateSignupToken(name, email, passwordHash string, duration time.Duration) (string, error)
	VerifySignupToken(tokenStr string) (*SignupClaims, error)
}

// UserStore is the credential store backing signup and login
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	CreateGoogleUser(ctx context.Context, name, email, googleID string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*user.User, error)
}

// OTPStore is the pending-verification store with store-enforced expiry
type OTPStore interface {
	Store(ctx context.Context, email, code string) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendOTPEmail(ctx context.Context, toEmail, code string) error
}

// IdentityVerifier validates third-party identity provider tokens
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleIdentity, error)
}
