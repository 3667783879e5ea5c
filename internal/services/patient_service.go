package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// PatientForm is the submitted create/edit form. Every field arrives as
// text so that malformed numbers and dates turn into field errors rather
// than parse failures.
type PatientForm struct {
	ID          string `form:"id" validate:"omitempty,number"`
	Name        string `form:"name" validate:"required,min=2,max=40"`
	DateOfBirth string `form:"dateOfBirth" validate:"required,datetime=2006-01-02,pastdate"`
	Sick        bool   `form:"sick"`
	Score       string `form:"score" validate:"required,number"`
}

// FormFromPatient pre-fills the edit form.
func FormFromPatient(p *models.Patient) PatientForm {
	form := PatientForm{
		Name:  p.Name,
		Sick:  p.Sick,
		Score: strconv.Itoa(p.Score),
	}
	if p.ID != 0 {
		form.ID = strconv.FormatUint(uint64(p.ID), 10)
	}
	if !p.DateOfBirth.IsZero() {
		form.DateOfBirth = p.DateOfBirth.Format(DateLayout)
	}
	return form
}

type PatientService struct {
	patients *repository.PatientRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewPatientService(patients *repository.PatientRepository) *PatientService {
	s := &PatientService{patients: patients, now: time.Now}
	s.validate = newValidator(func() time.Time { return s.now() })
	return s
}

// List returns one page of patients; a blank keyword lists everyone.
func (s *PatientService) List(ctx context.Context, keyword string, req repository.PageRequest) (*repository.Page[models.Patient], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.patients.FindAll(ctx, req)
	}
	return s.patients.FindByNameContains(ctx, keyword, req)
}

func (s *PatientService) Get(ctx context.Context, id uint) (*models.Patient, error) {
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("patient %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// Save validates the form and upserts the patient. A FieldErrors value is
// returned, and nothing is written, when any field is invalid. Saving a form
// whose id no longer exists reports ErrNotFound.
func (s *PatientService) Save(ctx context.Context, form PatientForm) (*models.Patient, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.ID = strings.TrimSpace(form.ID)

	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, toFieldErrors(verrs)
		}
		return nil, err
	}

	dob, _ := time.Parse(DateLayout, form.DateOfBirth)
	score, err := strconv.Atoi(form.Score)
	if err != nil {
		return nil, FieldErrors{"score": "must be a whole number"}
	}

	patient := &models.Patient{
		Name:        form.Name,
		DateOfBirth: dob,
		Sick:        form.Sick,
		Score:       score,
	}

	if form.ID != "" {
		id, err := strconv.ParseUint(form.ID, 10, 64)
		if err != nil || id == 0 {
			return nil, FieldErrors{"id": "must be a valid identifier"}
		}
		if _, err := s.Get(ctx, uint(id)); err != nil {
			return nil, err
		}
		patient.ID = uint(id)
	}

	if err := s.patients.Save(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) Delete(ctx context.Context, id uint) error {
	if err := s.patients.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("patient %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *PatientService) Count(ctx context.Context) (int64, error) {
	return s.patients.Count(ctx)
}

func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(DateLayout, fl.Field().String())
		if err != nil {
			// datetime reports the format problem
			return true
		}
		return !d.After(now())
	})
	return v
}

func toFieldErrors(verrs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "pastdate":
		return "must not be in the future"
	case "number":
		return "must be a non-negative whole number"
	default:
		return "is invalid"
	}
}
