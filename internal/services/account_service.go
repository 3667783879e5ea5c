package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordEncoder turns a plain password into its stored form.
type PasswordEncoder interface {
	Hash(password string) (string, error)
}

type AccountService struct {
	db      *gorm.DB
	users   *repository.UserRepository
	roles   *repository.RoleRepository
	encoder PasswordEncoder
}

func NewAccountService(db *gorm.DB, encoder PasswordEncoder) *AccountService {
	return &AccountService{
		db:      db,
		users:   repository.NewUserRepository(db),
		roles:   repository.NewRoleRepository(db),
		encoder: encoder,
	}
}

func (s *AccountService) AddUser(ctx context.Context, username, password, email, confirmPassword string) (*models.AppUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, FieldErrors{"username": "must not be blank"}
	}
	if password == "" {
		return nil, FieldErrors{"password": "must not be blank"}
	}

	var user *models.AppUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)

		exists, err := users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %q: %w", username, ErrConflict)
		}
		if password != confirmPassword {
			return FieldErrors{"confirmPassword": "passwords do not match"}
		}

		hash, err := s.encoder.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = &models.AppUser{
			ID:       uuid.NewString(),
			Username: username,
			Password: hash,
			Email:    strings.TrimSpace(email),
			Roles:    []models.AppRole{},
		}
		// A concurrent AddUser can pass the existence check too; the
		// unique index decides.
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("user %q: %w", username, ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "username", user.Username, "user_id", user.ID)
	return user, nil
}

func (s *AccountService) AddRole(ctx context.Context, roleName string) (*models.AppRole, error) {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return nil, FieldErrors{"role": "must not be blank"}
	}

	role := &models.AppRole{RoleName: roleName}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roles := s.roles.WithTx(tx)

		_, err := roles.FindByName(ctx, roleName)
		if err == nil {
			return fmt.Errorf("role %q: %w", roleName, ErrConflict)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := roles.Create(ctx, role); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("role %q: %w", roleName, ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("role created", "role", roleName)
	return role, nil
}

// AddRoleToUser persists the membership in the same transaction that
// checks both sides exist.
func (s *AccountService) AddRoleToUser(ctx context.Context, username, roleName string) error {
	err := s.withMembership(ctx, username, roleName, func(users *repository.UserRepository, user *models.AppUser) error {
		return users.AddMembership(ctx, user.ID, roleName)
	})
	if err != nil {
		return err
	}
	slog.Info("role granted", "username", username, "role", roleName)
	return nil
}

func (s *AccountService) RemoveRoleFromUser(ctx context.Context, username, roleName string) error {
	err := s.withMembership(ctx, username, roleName, func(users *repository.UserRepository, user *models.AppUser) error {
		return users.RemoveMembership(ctx, user.ID, roleName)
	})
	if err != nil {
		return err
	}
	slog.Info("role revoked", "username", username, "role", roleName)
	return nil
}

func (s *AccountService) LoadUserByUsername(ctx context.Context, username string) (*models.AppUser, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.AppUser, error) {
	return s.users.List(ctx)
}

func (s *AccountService) ListRoles(ctx context.Context) ([]models.AppRole, error) {
	return s.roles.List(ctx)
}

func (s *AccountService) withMembership(ctx context.Context, username, roleName string, fn func(*repository.UserRepository, *models.AppUser) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)

		user, err := users.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("user %q: %w", username, ErrNotFound)
			}
			return err
		}
		if _, err := s.roles.WithTx(tx).FindByName(ctx, roleName); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("role %q: %w", roleName, ErrNotFound)
			}
			return err
		}
		return fn(users, user)
	})
}
