package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
)

var (
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = repository.ErrNotFound
)

// FieldErrors maps a form field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}
