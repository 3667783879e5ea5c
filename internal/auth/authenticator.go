package auth

import (
	"context"
	"errors"
	"log/slog"
)

// PasswordVerifier checks a plain password against its stored hash.
type PasswordVerifier interface {
	Verify(hash, password string) bool
}

type Authenticator struct {
	lookup   CredentialLookup
	verifier PasswordVerifier
}

func NewAuthenticator(lookup CredentialLookup, verifier PasswordVerifier) *Authenticator {
	return &Authenticator{lookup: lookup, verifier: verifier}
}

// Authenticate returns the caller's credentials when password matches.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*Credentials, error) {
	creds, err := a.lookup.LookupCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAuthLookup) {
			slog.Warn("login rejected", "username", username, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.verifier.Verify(creds.PasswordHash, password) {
		slog.Warn("login rejected", "username", username, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}
	return creds, nil
}
