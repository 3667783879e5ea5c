package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// SessionProtected rejects requests without a valid session cookie.
// Browsers are sent to the login page; API callers get a 401.
func SessionProtected(sessions *auth.SessionIssuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: sessions.Secret()},
		TokenLookup: "cookie:" + sessions.CookieName(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if IsAPIRequest(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Unauthorized: invalid or expired session",
				})
			}
			sessions.End(c)
			return c.Redirect("/login", fiber.StatusFound)
		},
	})
}

// IsAPIRequest reports whether the request targets the JSON surface.
func IsAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}
