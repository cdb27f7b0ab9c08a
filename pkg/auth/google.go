package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// ExternalIdentity is the slice of a Google ID token the identity service
// needs to find or create a user.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// ExternalVerifier validates a token minted by an external identity
// provider. Mocked in tests.
type ExternalVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error)
}

type googleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) ExternalVerifier {
	return &googleVerifier{clientID: clientID}
}

func (g *googleVerifier) Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	payload, err := idtoken.Validate(ctx, rawToken, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("google id token validation failed: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)

	return &ExternalIdentity{
		Subject: payload.Subject,
		Email:   email,
		Name:    name,
	}, nil
}
