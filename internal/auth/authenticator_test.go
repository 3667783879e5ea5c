package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type failingLookup struct{ err error }

func (f failingLookup) LookupCredentials(context.Context, string) (*Credentials, error) {
	return nil, f.err
}

func TestAuthenticator(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	lookup, err := NewMemoryLookup("admin:1234:USER,ADMIN", h)
	require.NoError(t, err)
	a := NewAuthenticator(lookup, h)
	ctx := context.Background()

	creds, err := a.Authenticate(ctx, "admin", "1234")
	require.NoError(t, err)
	assert.True(t, creds.HasRole("ADMIN"))
	assert.False(t, creds.HasRole("ROOT"))

	_, err = a.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "ghost", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticator_LookupFailureIsNotACredentialError(t *testing.T) {
	boom := errors.New("db down")
	a := NewAuthenticator(failingLookup{err: boom}, NewBcryptHasher(bcrypt.MinCost))

	_, err := a.Authenticate(context.Background(), "admin", "1234")
	assert.ErrorIs(t, err, boom)
}
