package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barberia/reservation-backend/internal/config"
	"github.com/barberia/reservation-backend/internal/model"
	"github.com/barberia/reservation-backend/internal/repository"
)

// AdminUserHandler implements the administrative user CRUD against the
// accounts database.  These are plain pass-through queries; the routes
// are gated by RequireAdmin.
type AdminUserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAdminUserHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo) *AdminUserHandler {
	if users == nil || tokens == nil {
		panic("nil repository passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

// List handles GET /v1/admin/users.
func (h *AdminUserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Create handles POST /v1/admin/users.  Unlike public registration it
// may grant the ADMIN role.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var body struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Phone    *string `json:"phone"`
		Role     string  `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}
	role := strings.ToUpper(strings.TrimSpace(body.Role))
	if role != model.RoleAdmin {
		role = model.RoleCustomer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, body.Name, body.Email, body.Password, body.Phone, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update handles PUT /v1/admin/users/:id with a partial body; at least
// one field must be present.
func (h *AdminUserHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var body struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Phone    *string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	upd := repository.UserUpdate{Name: body.Name, Email: body.Email, Password: body.Password, Phone: body.Phone}
	err = h.Users.Update(c.Request().Context(), id, upd, h.Cfg.BcryptCost)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
	case err == repository.ErrEmailExists:
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one field must be provided"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
}

// Delete handles DELETE /v1/admin/users/:id.  The user's refresh tokens
// are revoked first so a deleted account cannot mint new access tokens.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	return c.NoContent(http.StatusNoContent)
}
