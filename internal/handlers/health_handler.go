package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/database"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	patients *services.PatientService
}

func NewHealthHandler(db *gorm.DB, patients *services.PatientService) *HealthHandler {
	return &HealthHandler{db: db, patients: patients}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	var count int64
	if err := database.Ping(h.db); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	} else if n, err := h.patients.Count(c.UserContext()); err == nil {
		count = n
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		DB:           dbStatus,
		PatientCount: count,
	})
}
