package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportehq/helpdesk/internal/api/dto"
	"github.com/soportehq/helpdesk/internal/auth"
	"github.com/soportehq/helpdesk/internal/domain"
	"github.com/soportehq/helpdesk/internal/service"
	apperrors "github.com/soportehq/helpdesk/pkg/util"
)

// UsersHandler serves the user directory endpoints.
type UsersHandler struct {
	users      *service.UserService
	bcryptCost int
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, bcryptCost int) *UsersHandler {
	return &UsersHandler{users: users, bcryptCost: bcryptCost}
}

// ListUsers GET /api/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(items)
}

// CreateUser POST /api/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("email and name required", nil)
	}
	if req.Role != "" && !domain.ValidRole(domain.UserRole(req.Role)) {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, h.bcryptCost)
		if err != nil {
			return err
		}
		passwordHash = hash
	}

	user, err := h.users.CreateUser(c.UserContext(), service.UserCreateInput{
		Email:        req.Email,
		Name:         req.Name,
		Role:         domain.UserRole(req.Role),
		PasswordHash: passwordHash,
	}, req.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// UpdateUser PATCH /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UserUpdateInput{
		Email: req.Email,
		Name:  req.Name,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		if !domain.ValidRole(role) {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": *req.Role})
		}
		input.Role = &role
	}

	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
