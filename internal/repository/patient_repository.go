package repository

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Save inserts a patient with a zero ID (assigning it) and overwrites every
// column of an existing one.
func (r *PatientRepository) Save(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Save(patient).Error; err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	if err := r.db.WithContext(ctx).First(&patient, id).Error; err != nil {
		return nil, translate(err)
	}
	return &patient, nil
}

func (r *PatientRepository) FindAll(ctx context.Context, req PageRequest) (*Page[models.Patient], error) {
	return r.page(r.db.WithContext(ctx).Model(&models.Patient{}), req)
}

// FindByNameContains pages through patients whose name contains keyword,
// ignoring case.
func (r *PatientRepository) FindByNameContains(ctx context.Context, keyword string, req PageRequest) (*Page[models.Patient], error) {
	query := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(keyword))
	return r.page(query, req)
}

func (r *PatientRepository) DeleteByID(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Patient{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PatientRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&total).Error
	return total, err
}

func (r *PatientRepository) page(query *gorm.DB, req PageRequest) (*Page[models.Patient], error) {
	req = req.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count patients: %w", err)
	}

	var patients []models.Patient
	if err := query.Session(&gorm.Session{}).
		Order("id ASC").
		Limit(req.Size).
		Offset(req.Offset()).
		Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	return NewPage(patients, req, total), nil
}
