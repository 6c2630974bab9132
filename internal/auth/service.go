package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-api/internal/logging"
	"notes-api/internal/user"
)

var (
	ErrMissingFields      = errors.New("please enter all fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignupToken = errors.New("signup token is invalid or has expired")
	ErrOTPNotFound        = errors.New("otp has expired or is invalid")
	ErrOTPMismatch        = errors.New("invalid otp")
	ErrInvalidGoogleToken = errors.New("invalid google token")
)

// Service handles authentication business logic
type Service struct {
	users           UserStore
	otps            OTPStore
	tokens          TokenService
	emailService    EmailService
	googleVerifier  IdentityVerifier
	logger          *logging.Logger
	sessionDuration time.Duration
	signupDuration  time.Duration
}

func NewService(
	users UserStore,
	otps OTPStore,
	tokens TokenService,
	emailService EmailService,
	googleVerifier IdentityVerifier,
	logger *logging.Logger,
	sessionDuration time.Duration,
	signupDuration time.Duration,
) *Service {
	return &Service{
		users:           users,
		otps:            otps,
		tokens:          tokens,
		emailService:    emailService,
		googleVerifier:  googleVerifier,
		logger:          logger,
		sessionDuration: sessionDuration,
		signupDuration:  signupDuration,
	}
}

// Signup registers a user directly, without the OTP step, and returns
// a session token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*user.User, string, error) {
	if name == "" || email == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.sessionToken(newUser)
	if err != nil {
		return nil, "", err
	}

	return newUser, token, nil
}

// Login authenticates a user by email and password. Unknown email and
// wrong password take the same path and report identically, so the
// response never reveals whether an account exists.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existing.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.sessionToken(existing)
}

// SendOTP initiates an OTP-gated signup: it replaces any pending
// verification for the email, mails a fresh six-digit code, and
// returns a short-lived signup token carrying the (hashed) signup
// data. The client must present both to VerifyOTP. The email send is
// awaited; a delivery failure fails the whole call.
func (s *Service) SendOTP(ctx context.Context, name, email, password string) (string, error) {
	if name == "" || email == "" || password == "" {
		return "", ErrMissingFields
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return "", user.ErrDuplicateEmail
	}
	if !errors.Is(err, user.ErrNotFound) {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}

	if err := s.otps.Store(ctx, email, code); err != nil {
		return "", err
	}

	if err := s.emailService.SendOTPEmail(ctx, email, code); err != nil {
		return "", fmt.Errorf("failed to send otp email: %w", err)
	}

	tempToken, err := s.tokens.CreateSignupToken(name, email, passwordHash, s.signupDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create signup token: %w", err)
	}

	return tempToken, nil
}

// VerifyOTP confirms an OTP-gated signup and commits the user record.
// The user-existence check runs before the OTP lookup so that a retry
// after a crash between user creation and OTP deletion fails cleanly
// with a duplicate error instead of registering twice.
func (s *Service) VerifyOTP(ctx context.Context, code, tempToken string) (*user.User, string, error) {
	if code == "" || tempToken == "" {
		return nil, "", ErrMissingFields
	}

	claims, err := s.tokens.VerifySignupToken(tempToken)
	if err != nil {
		return nil, "", ErrInvalidSignupToken
	}

	if _, err := s.users.GetByEmail(ctx, claims.Email); err == nil {
		return nil, "", user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	stored, err := s.otps.Get(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return nil, "", ErrOTPNotFound
		}
		return nil, "", err
	}

	// Plain equality; codes are digit-only
	if stored != code {
		return nil, "", ErrOTPMismatch
	}

	newUser, err := s.users.Create(ctx, claims.Name, claims.Email, claims.PasswordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	// The user is committed; a failed cleanup only leaves a record the
	// TTL will collect, so it must not fail the signup.
	if err := s.otps.Delete(ctx, claims.Email); err != nil {
		s.logger.Warn("failed to delete consumed otp", "email", claims.Email, "error", err)
	}

	token, err := s.sessionToken(newUser)
	if err != nil {
		return nil, "", err
	}

	return newUser, token, nil
}

// GoogleLogin authenticates a user with a Google ID token, creating
// the account on first login. Lookup is by the subject claim only, not
// email: a password account and a Google account sharing an address
// remain separate users.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (string, error) {
	identity, err := s.googleVerifier.Verify(ctx, idToken)
	if err != nil {
		return "", ErrInvalidGoogleToken
	}
	if identity.Sub == "" {
		return "", ErrInvalidGoogleToken
	}

	existing, err := s.users.GetByGoogleID(ctx, identity.Sub)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return "", fmt.Errorf("failed to get user by google id: %w", err)
		}
		existing, err = s.users.CreateGoogleUser(ctx, identity.Name, identity.Email, identity.Sub)
		if err != nil {
			// The address is already taken by a password account; the
			// two identity kinds are never merged.
			if errors.Is(err, user.ErrDuplicateEmail) {
				return "", user.ErrDuplicateEmail
			}
			return "", fmt.Errorf("failed to create google user: %w", err)
		}
		s.logger.Info("created user from google sign-in", "user_id", existing.ID)
	}

	return s.sessionToken(existing)
}

func (s *Service) sessionToken(u *user.User) (string, error) {
	token, err := s.tokens.CreateSessionToken(u.ID, u.Name, u.Email, s.sessionDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}
	return token, nil
}
