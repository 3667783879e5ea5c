package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/models"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves the admin JSON API over users and roles.
type AccountHandler struct {
	accounts *services.AccountService
	validate *validator.Validate
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts, validate: validator.New()}
}

func (h *AccountHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.accounts.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return c.JSON(out)
}

func (h *AccountHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.accounts.AddUser(c.UserContext(), req.Username, req.Password, req.Email, req.ConfirmPassword)
	if err != nil {
		return accountError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

func (h *AccountHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.accounts.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

func (h *AccountHandler) CreateRole(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, err := h.accounts.AddRole(c.UserContext(), req.Role)
	if err != nil {
		return accountError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *AccountHandler) GrantRole(c *fiber.Ctx) error {
	if err := h.accounts.AddRoleToUser(c.UserContext(), c.Params("username"), c.Params("role")); err != nil {
		return accountError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AccountHandler) RevokeRole(c *fiber.Ctx) error {
	if err := h.accounts.RemoveRoleFromUser(c.UserContext(), c.Params("username"), c.Params("role")); err != nil {
		return accountError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toUserResponse(u *models.AppUser) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.RoleNames(),
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func accountError(c *fiber.Ctx, err error) error {
	var fieldErrs services.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: services.ErrValidation.Error(), Fields: fieldErrs,
		})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	default:
		return err
	}
}
