package handlers

import (
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/gofiber/fiber/v2"
)

const roleAdmin = "ADMIN"

// withPrincipal adds the signed-in user, if any, to the view data.
func withPrincipal(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if p, err := auth.CurrentPrincipal(c); err == nil {
		data["User"] = p
		data["IsAdmin"] = p.HasRole(roleAdmin)
	}
	return data
}

func currentUsername(c *fiber.Ctx) string {
	if p, err := auth.CurrentPrincipal(c); err == nil {
		return p.Username
	}
	return ""
}
