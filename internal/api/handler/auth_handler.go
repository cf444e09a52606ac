package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workforce/login-service/internal/core/ports"
)

type AuthHandler struct {
	users ports.UserService
}

func NewAuthHandler(users ports.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Email        string `json:"email"        validate:"required,email,max=100"`
	Password     string `json:"password"     validate:"required"`
	RoleID       int64  `json:"roleId"`
	FirstName    string `json:"firstName"    validate:"required"`
	LastName     string `json:"lastName"     validate:"required"`
	DepartmentID int64  `json:"departmentId" validate:"gt=0"`
	PositionID   int64  `json:"positionId"   validate:"gt=0"`
	SuperiorID   *int64 `json:"superiorId,omitempty"`
	IsApprover   bool   `json:"isApprover"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	Expiration string `json:"expiration" example:"2026-10-17T10:30:00Z"`
}

// Register creates a user and its employee record.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.users.RegisterUser(c.Request().Context(), ports.RegisterUserInput{
		Email:        req.Email,
		Password:     req.Password,
		RoleID:       req.RoleID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		PositionID:   req.PositionID,
		SuperiorID:   req.SuperiorID,
		IsApprover:   req.IsApprover,
	})
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusCreated)
}

// Login authenticates a user and returns a signed session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tok, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tok)
}

// errorBody documents the error envelope rendered by the API error handler.
type errorBody struct {
	Error string `json:"error"`
}
