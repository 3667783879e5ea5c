// Package auth turns a username into credentials, checks passwords against
// them and issues the signed session cookie that proves a login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
)

var (
	ErrAuthLookup         = errors.New("unknown principal")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	StrategyDatabase = "database"
	StrategyMemory   = "memory"
)

// Credentials is what the login check compares a submitted password with.
type Credentials struct {
	Username     string
	PasswordHash string
	Roles        []string
}

func (c *Credentials) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CredentialLookup resolves a username to credentials, failing with
// ErrAuthLookup when no such principal exists.
type CredentialLookup interface {
	LookupCredentials(ctx context.Context, username string) (*Credentials, error)
}

// UserLoader is the part of the account service the database strategy uses.
type UserLoader interface {
	LoadUserByUsername(ctx context.Context, username string) (*models.AppUser, error)
}

// AccountLookup reads credentials from the account tables.
type AccountLookup struct {
	users UserLoader
}

func NewAccountLookup(users UserLoader) *AccountLookup {
	return &AccountLookup{users: users}
}

func (l *AccountLookup) LookupCredentials(ctx context.Context, username string) (*Credentials, error) {
	user, err := l.users.LoadUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", username, ErrAuthLookup)
		}
		return nil, err
	}
	return &Credentials{
		Username:     user.Username,
		PasswordHash: user.Password,
		Roles:        user.RoleNames(),
	}, nil
}

// MemoryLookup serves a fixed set of users held in memory.
type MemoryLookup struct {
	users map[string]Credentials
}

// NewMemoryLookup parses "name:password:ROLE1,ROLE2;name2:password2:ROLE"
// and hashes every password up front.
func NewMemoryLookup(entries string, hasher *BcryptHasher) (*MemoryLookup, error) {
	l := &MemoryLookup{users: make(map[string]Credentials)}
	for _, entry := range strings.Split(entries, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid in-memory user entry %q", entry)
		}
		hash, err := hasher.Hash(parts[1])
		if err != nil {
			return nil, err
		}
		var roles []string
		if len(parts) == 3 {
			for _, r := range strings.Split(parts[2], ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}
		l.users[parts[0]] = Credentials{Username: parts[0], PasswordHash: hash, Roles: roles}
	}
	if len(l.users) == 0 {
		return nil, errors.New("in-memory strategy needs at least one user")
	}
	return l, nil
}

func (l *MemoryLookup) LookupCredentials(_ context.Context, username string) (*Credentials, error) {
	c, ok := l.users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, ErrAuthLookup)
	}
	c.Roles = append([]string(nil), c.Roles...)
	return &c, nil
}

// NewCredentialLookup picks the lookup strategy named by configuration.
func NewCredentialLookup(strategy string, users UserLoader, memoryUsers string, hasher *BcryptHasher) (CredentialLookup, error) {
	switch strategy {
	case "", StrategyDatabase:
		return NewAccountLookup(users), nil
	case StrategyMemory:
		return NewMemoryLookup(memoryUsers, hasher)
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", strategy)
	}
}
