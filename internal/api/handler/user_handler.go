package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workforce/login-service/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"rol"`
}

// List returns every registered user.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorBody
// @Failure      422  {object}  errorBody
// @Router       /api/v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := ctxClaims(c); err != nil {
		return err
	}

	users, err := h.users.GetAllUsers(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
	}
	return c.JSON(http.StatusOK, out)
}
