package middleware

import (
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// RequireRole lets the request through when the signed-in principal holds
// at least one of roles. It must run after SessionProtected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := auth.CurrentPrincipal(c)
		if err != nil {
			if IsAPIRequest(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}
			return c.Redirect("/login", fiber.StatusFound)
		}

		for _, role := range roles {
			if principal.HasRole(role) {
				return c.Next()
			}
		}

		if IsAPIRequest(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Forbidden: missing required role",
			})
		}
		return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{
			"Title":   "Access denied",
			"Message": "You do not have permission to perform this action.",
			"User":    principal,
		}, "layouts/main")
	}
}
