package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/views"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authenticator *auth.Authenticator
	sessions      *auth.SessionIssuer
	metrics       *metrics.Metrics
}

func NewAuthHandler(authenticator *auth.Authenticator, sessions *auth.SessionIssuer, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, sessions: sessions, metrics: m}
}

func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{
		"Title":     "Login",
		"LoggedOut": c.Context().QueryArgs().Has("logout"),
	}, views.Layout)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.rejectLogin(c, "", fiber.StatusBadRequest)
	}
	req.Username = strings.TrimSpace(req.Username)

	creds, err := h.authenticator.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.LoginAttempt(false)
			return h.rejectLogin(c, req.Username, fiber.StatusUnauthorized)
		}
		return err
	}

	if err := h.sessions.Start(c, creds); err != nil {
		return err
	}
	h.metrics.LoginAttempt(true)
	slog.Info("user signed in", "username", creds.Username, "roles", creds.Roles)
	return c.Redirect("/index", fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.End(c)
	return c.Redirect("/login?logout", fiber.StatusFound)
}

func (h *AuthHandler) rejectLogin(c *fiber.Ctx, username string, code int) error {
	return c.Status(code).Render("login", fiber.Map{
		"Title":    "Login",
		"Error":    "Invalid username or password",
		"Username": username,
	}, views.Layout)
}
