package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/service"
)

// UserAdminHandler manages portal users.
type UserAdminHandler struct {
	users *service.UserService
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(users *service.UserService) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

// List handles GET /admin/users requests.
func (h *UserAdminHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to list users")
	}
	return Success(c, http.StatusOK, "", users)
}

// Create handles POST /admin/users requests.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			return Error(c, http.StatusConflict, "email already exists")
		}
		return Error(c, http.StatusBadRequest, err.Error())
	}

	return Success(c, http.StatusCreated, "user created", user)
}
