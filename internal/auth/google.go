package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the subset of ID-token claims the service uses.
// Sub is Google's stable subject identifier for the account.
type GoogleIdentity struct {
	Sub   string
	Name  string
	Email string
}

// GoogleVerifier validates Google ID tokens against the application's
// OAuth client ID.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks the token's signature against Google's public keys and
// its audience against the configured client ID. Any failure (expired,
// wrong audience, bad signature) is reported the same way.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("empty token payload")
	}

	sub, _ := payload.Claims["sub"].(string)
	name, _ := payload.Claims["name"].(string)
	email, _ := payload.Claims["email"].(string)

	return &GoogleIdentity{
		Sub:   sub,
		Name:  name,
		Email: email,
	}, nil
}
