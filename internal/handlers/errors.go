package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/views"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that escaped a handler. Details of server
// errors are logged, never shown.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
			"username", currentUsername(c),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	if middleware.IsAPIRequest(c) {
		return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
	}
	return renderError(c, code, "Error", message)
}

func renderError(c *fiber.Ctx, code int, title, message string) error {
	data := withPrincipal(c, fiber.Map{
		"Title":   title,
		"Message": message,
	})
	return c.Status(code).Render("error", data, views.Layout)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
