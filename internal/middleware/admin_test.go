package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withToken stands in for the session middleware.
func withToken(roles ...interface{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": "admin", "roles": roles}})
		return c.Next()
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		p, err := auth.CurrentPrincipal(c)
		if err != nil {
			return err
		}
		return c.SendString(p.Username)
	}
	app.Get("/api/admin", withToken("ADMIN"), RequireRole("ADMIN"), whoami)
	app.Get("/api/reader", withToken("USER"), RequireRole("ADMIN"), whoami)
	app.Get("/api/anon", RequireRole("ADMIN"), whoami)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/reader", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
