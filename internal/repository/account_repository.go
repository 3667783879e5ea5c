package repository

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByUsername loads the user together with its role set.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.AppUser, error) {
	var user models.AppUser
	if err := r.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("role_name ASC") }).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AppUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return count > 0, nil
}

// Create inserts the user row only; memberships are written separately.
func (r *UserRepository) Create(ctx context.Context, user *models.AppUser) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.AppUser, error) {
	var users []models.AppUser
	if err := r.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("role_name ASC") }).
		Order("username ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// AddMembership records that user holds role. An existing membership is
// left untouched.
func (r *UserRepository) AddMembership(ctx context.Context, userID, roleName string) error {
	row := models.UserRole{UserID: userID, RoleName: roleName}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveMembership(ctx context.Context, userID, roleName string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND role_name = ?", userID, roleName).
		Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) WithTx(tx *gorm.DB) *RoleRepository {
	return &RoleRepository{db: tx}
}

func (r *RoleRepository) FindByName(ctx context.Context, roleName string) (*models.AppRole, error) {
	var role models.AppRole
	if err := r.db.WithContext(ctx).Where("role_name = ?", roleName).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *models.AppRole) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return fmt.Errorf("failed to create role: %w", translate(err))
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]models.AppRole, error) {
	var roles []models.AppRole
	if err := r.db.WithContext(ctx).Order("role_name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}
