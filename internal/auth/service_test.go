package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-api/internal/logging"
	"notes-api/internal/user"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users []*user.User
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}
	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUserStore) CreateGoogleUser(ctx context.Context, name, email, googleID string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}
	u := &user.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		GoogleID:  &googleID,
		CreatedAt: time.Now(),
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) GetByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: make(map[string]string)}
}

func (f *fakeOTPStore) Store(ctx context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	return nil
}

func (f *fakeOTPStore) Get(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[email]
	if !ok {
		return "", ErrOTPNotFound
	}
	return code, nil
}

func (f *fakeOTPStore) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

type sentMail struct {
	email string
	code  string
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeEmailService) SendOTPEmail(ctx context.Context, toEmail, code string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{email: toEmail, code: code})
	return nil
}

type fakeVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type serviceFixture struct {
	svc    *Service
	users  *fakeUserStore
	otps   *fakeOTPStore
	mailer *fakeEmailService
	google *fakeVerifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	users := &fakeUserStore{}
	otps := newFakeOTPStore()
	mailer := &fakeEmailService{}
	google := &fakeVerifier{}
	tokens := newTestPasetoService(t)

	svc := NewService(
		users,
		otps,
		tokens,
		mailer,
		google,
		logging.NewLogger(true),
		time.Hour,
		10*time.Minute,
	)

	return &serviceFixture{svc: svc, users: users, otps: otps, mailer: mailer, google: google}
}

func TestSignup_CreatesUserAndToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, token, err := f.svc.Signup(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "Ann", created.Name)
	assert.Equal(t, "ann@x.com", created.Email)
	assert.True(t, VerifyPassword(created.PasswordHash, "pw123"))

	claims, err := f.svc.tokens.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)
}

func TestSignup_MissingFields(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "", "ann@x.com", "pw123")
	require.ErrorIs(t, err, ErrMissingFields)
	_, _, err = f.svc.Signup(ctx, "Ann", "", "pw123")
	require.ErrorIs(t, err, ErrMissingFields)
	_, _, err = f.svc.Signup(ctx, "Ann", "ann@x.com", "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	_, _, err = f.svc.Signup(ctx, "Other Ann", "ann@x.com", "different")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLogin_Succeeds(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	token, err := f.svc.Login(ctx, "ann@x.com", "pw123")
	require.NoError(t, err)

	claims, err := f.svc.tokens.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", claims.Email)
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	// Wrong password for an existing account and an account that does
	// not exist must produce the same error.
	_, wrongPassErr := f.svc.Login(ctx, "ann@x.com", "wrong")
	_, noUserErr := f.svc.Login(ctx, "ghost@x.com", "pw123")

	require.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	require.ErrorIs(t, noUserErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPassErr, noUserErr)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Login(context.Background(), "", "pw123")
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = f.svc.Login(context.Background(), "ann@x.com", "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestSendOTP_ThenVerify_SucceedsExactlyOnce(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tempToken, err := f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ann@x.com", f.mailer.sent[0].email)
	assert.Len(t, f.mailer.sent[0].code, 6)

	code := f.mailer.sent[0].code

	created, token, err := f.svc.VerifyOTP(ctx, code, tempToken)
	require.NoError(t, err)
	assert.Equal(t, "Ann", created.Name)
	assert.True(t, VerifyPassword(created.PasswordHash, "pw123"))

	claims, err := f.svc.tokens.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)

	// The pending record is consumed.
	_, err = f.otps.Get(ctx, "ann@x.com")
	require.ErrorIs(t, err, ErrOTPNotFound)

	// A replay with the same inputs fails: the user already exists.
	_, _, err = f.svc.VerifyOTP(ctx, code, tempToken)
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestSendOTP_MissingFields(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendOTP(ctx, "", "ann@x.com", "pw123")
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = f.svc.SendOTP(ctx, "Ann", "", "pw123")
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = f.svc.SendOTP(ctx, "Ann", "ann@x.com", "")
	require.ErrorIs(t, err, ErrMissingFields)
	assert.Empty(t, f.mailer.sent)
}

func TestSendOTP_DuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	_, err = f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
	assert.Empty(t, f.mailer.sent)
}

func TestSendOTP_ReplacesPriorCode(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	firstToken, err := f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)
	_, err = f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 2)

	firstCode := f.mailer.sent[0].code
	secondCode := f.mailer.sent[1].code

	// The stale first code only works if it happens to collide with
	// the fresh one; otherwise it must mismatch.
	if firstCode != secondCode {
		_, _, err = f.svc.VerifyOTP(ctx, firstCode, firstToken)
		require.ErrorIs(t, err, ErrOTPMismatch)
	}

	// The fresh code still completes the signup via the first token:
	// the token carries signup intent, the store carries the code.
	_, _, err = f.svc.VerifyOTP(ctx, secondCode, firstToken)
	require.NoError(t, err)
}

func TestSendOTP_EmailFailureSurfaces(t *testing.T) {
	f := newServiceFixture(t)
	f.mailer.err = errors.New("smtp: connection refused")

	_, err := f.svc.SendOTP(context.Background(), "Ann", "ann@x.com", "pw123")
	require.Error(t, err)
	require.NotErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestVerifyOTP_MissingFields(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.svc.VerifyOTP(context.Background(), "", "token")
	require.ErrorIs(t, err, ErrMissingFields)
	_, _, err = f.svc.VerifyOTP(context.Background(), "123456", "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestVerifyOTP_InvalidToken(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.svc.VerifyOTP(context.Background(), "123456", "garbage")
	require.ErrorIs(t, err, ErrInvalidSignupToken)
}

func TestVerifyOTP_ExpiredToken(t *testing.T) {
	f := newServiceFixture(t)
	tokens := newTestPasetoService(t)

	expired, err := tokens.CreateSignupToken("Ann", "ann@x.com", "hash", -time.Minute)
	require.NoError(t, err)

	_, _, err = f.svc.VerifyOTP(context.Background(), "123456", expired)
	require.ErrorIs(t, err, ErrInvalidSignupToken)
}

func TestVerifyOTP_NoPendingRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tempToken, err := f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	// Simulate TTL expiry: the record vanishes from the store.
	require.NoError(t, f.otps.Delete(ctx, "ann@x.com"))

	_, _, err = f.svc.VerifyOTP(ctx, f.mailer.sent[0].code, tempToken)
	require.ErrorIs(t, err, ErrOTPNotFound)
}

func TestVerifyOTP_Mismatch(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tempToken, err := f.svc.SendOTP(ctx, "Ann", "ann@x.com", "pw123")
	require.NoError(t, err)

	wrong := "000000"
	if f.mailer.sent[0].code == wrong {
		wrong = "000001"
	}

	_, _, err = f.svc.VerifyOTP(ctx, wrong, tempToken)
	require.ErrorIs(t, err, ErrOTPMismatch)

	// The record survives a mismatch; the right code still works.
	_, _, err = f.svc.VerifyOTP(ctx, f.mailer.sent[0].code, tempToken)
	require.NoError(t, err)
}

func TestGoogleLogin_CreatesUserOnFirstLogin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.google.identity = &GoogleIdentity{Sub: "g-123", Name: "Ann", Email: "ann@x.com"}

	token, err := f.svc.GoogleLogin(ctx, "id-token")
	require.NoError(t, err)

	claims, err := f.svc.tokens.VerifySessionToken(token)
	require.NoError(t, err)

	created, err := f.users.GetByGoogleID(ctx, "g-123")
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)
	assert.Empty(t, created.PasswordHash)

	// Second login finds the same account instead of creating another.
	token2, err := f.svc.GoogleLogin(ctx, "id-token")
	require.NoError(t, err)
	claims2, err := f.svc.tokens.VerifySessionToken(token2)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, claims2.UserID)
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	f := newServiceFixture(t)
	f.google.err = errors.New("idtoken: token expired")

	_, err := f.svc.GoogleLogin(context.Background(), "bad")
	require.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleLogin_EmptySubject(t *testing.T) {
	f := newServiceFixture(t)
	f.google.identity = &GoogleIdentity{Sub: "", Name: "Ann", Email: "ann@x.com"}

	_, err := f.svc.GoogleLogin(context.Background(), "id-token")
	require.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleLogin_PasswordAccountStaysSeparate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	passwordUser, _, err := f.svc.Signup(ctx, "Ann", "ann2@x.com", "pw123")
	require.NoError(t, err)

	// Same email via Google: lookup is by subject, email uniqueness
	// rejects the second account, and the identity kinds stay split.
	f.google.identity = &GoogleIdentity{Sub: "g-456", Name: "Ann", Email: "ann2@x.com"}
	_, err = f.svc.GoogleLogin(ctx, "id-token")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)

	// The password account is untouched.
	got, err := f.users.GetByEmail(ctx, "ann2@x.com")
	require.NoError(t, err)
	assert.Equal(t, passwordUser.ID, got.ID)
}
