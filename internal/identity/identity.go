// Package identity wraps the hosted identity provider. The backend never
// handles passwords; clients authenticate against the provider directly and
// present an ID token, which this package verifies into a stable uid plus
// the account email.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// ErrUnauthenticated is returned for missing, malformed, or expired tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified caller.
type Identity struct {
	// UID is the provider's stable user id; it keys the profile document and
	// is recorded as the sender id on messages.
	UID string
	// Email is the account email; it keys animal ownership and chat
	// membership.
	Email string
}

// Verifier turns a bearer token into a verified Identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// FirebaseVerifier verifies Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier obtains the auth client from an initialized Firebase
// app.
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	if idToken == "" {
		return Identity{}, ErrUnauthenticated
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	email, _ := tok.Claims["email"].(string)
	return Identity{UID: tok.UID, Email: email}, nil
}
