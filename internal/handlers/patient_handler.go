package handlers

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/views"
	"github.com/gofiber/fiber/v2"
)

type PatientHandler struct {
	patients    *services.PatientService
	metrics     *metrics.Metrics
	defaultSize int
}

func NewPatientHandler(patients *services.PatientService, m *metrics.Metrics, defaultSize int) *PatientHandler {
	if defaultSize <= 0 {
		defaultSize = repository.DefaultPageSize
	}
	return &PatientHandler{patients: patients, metrics: m, defaultSize: defaultSize}
}

// Index lists patients page by page, optionally filtered by a name keyword.
func (h *PatientHandler) Index(c *fiber.Ctx) error {
	keyword := strings.TrimSpace(c.Query("keyword"))
	req := repository.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", h.defaultSize),
	}.Normalize()

	page, err := h.patients.List(c.UserContext(), keyword, req)
	if err != nil {
		return err
	}

	return c.Render("index", withPrincipal(c, fiber.Map{
		"Title":       "Patients",
		"Patients":    page.Content,
		"TotalPages":  page.TotalPages,
		"CurrentPage": page.Number,
		"Keyword":     keyword,
		"Size":        page.Size,
	}), views.Layout)
}

func (h *PatientHandler) FormPatients(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, services.PatientForm{}, services.FieldErrors{})
}

// Save creates or updates a patient from the submitted form and returns the
// user to the listing page they came from.
func (h *PatientHandler) Save(c *fiber.Ctx) error {
	form := services.PatientForm{
		ID:          c.FormValue("id"),
		Name:        c.FormValue("name"),
		DateOfBirth: c.FormValue("dateOfBirth"),
		Sick:        checked(c.FormValue("sick")),
		Score:       c.FormValue("score"),
	}

	patient, err := h.patients.Save(c.UserContext(), form)
	if err != nil {
		var fieldErrs services.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			return h.renderForm(c, fiber.StatusUnprocessableEntity, form, fieldErrs)
		case errors.Is(err, services.ErrNotFound):
			return renderError(c, fiber.StatusNotFound, "Not found", "The patient no longer exists.")
		default:
			return err
		}
	}

	op := "create"
	if form.ID != "" {
		op = "update"
	}
	h.metrics.PatientOperation(op)
	slog.Info("patient saved", "patient_id", patient.ID, "action", op, "username", currentUsername(c))

	return c.Redirect(listingURL(c), fiber.StatusFound)
}

func (h *PatientHandler) Edit(c *fiber.Ctx) error {
	id, err := patientID(c)
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, "Bad request", "Invalid patient id.")
	}

	patient, err := h.patients.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return renderError(c, fiber.StatusNotFound, "Not found", "Patient not found.")
		}
		return err
	}

	return h.renderForm(c, fiber.StatusOK, services.FormFromPatient(patient), services.FieldErrors{})
}

func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	id, err := patientID(c)
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, "Bad request", "Invalid patient id.")
	}

	if err := h.patients.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return renderError(c, fiber.StatusNotFound, "Not found", "Patient not found.")
		}
		return err
	}

	h.metrics.PatientOperation("delete")
	slog.Info("patient deleted", "patient_id", id, "action", "delete", "username", currentUsername(c))

	return c.Redirect(listingURL(c), fiber.StatusFound)
}

// renderForm shows the edit page for an existing patient and the create
// page otherwise. errs must be non-nil for the templates.
func (h *PatientHandler) renderForm(c *fiber.Ctx, code int, form services.PatientForm, errs services.FieldErrors) error {
	name, title := "form-patients", "New patient"
	if strings.TrimSpace(form.ID) != "" {
		name, title = "edit-patient", "Edit patient"
	}
	return c.Status(code).Render(name, withPrincipal(c, fiber.Map{
		"Title":       title,
		"Form":        form,
		"Errors":      errs,
		"CurrentPage": c.QueryInt("page", 0),
		"Keyword":     c.Query("keyword"),
	}), views.Layout)
}

func patientID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

func listingURL(c *fiber.Ctx) string {
	page := c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}
	return "/index?page=" + strconv.Itoa(page) + "&keyword=" + url.QueryEscape(c.Query("keyword"))
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1":
		return true
	}
	return false
}
