package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workforce/login-service/internal/api/handler"
	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/infrastructure/token"
)

func newIssuer(t *testing.T) *token.JWTIssuer {
	t.Helper()
	iss, err := token.NewJWTIssuer("secret", "login-service", "workforce")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return iss
}

func signedToken(t *testing.T, iss *token.JWTIssuer) string {
	t.Helper()
	tok, err := iss.Issue(
		&domain.User{ID: 7, Email: "alice@example.com", Role: &domain.Role{ID: 1, Description: "Admin"}},
		&domain.EmployeeProfile{UserID: 7, DepartmentID: 1, CompanyID: 2},
	)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok.Token
}

func runAuth(t *testing.T, verifier TokenVerifier, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Auth(verifier)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	iss := newIssuer(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, iss))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Auth(iss)(func(c echo.Context) error {
		called = true
		claims, ok := c.Get(handler.ClaimsKey).(*token.Claims)
		if !ok || claims.Email != "alice@example.com" {
			t.Fatalf("claims not set: %+v", c.Get(handler.ClaimsKey))
		}
		if c.Get("user_id") != "7" {
			t.Fatalf("user_id not set")
		}
		if c.Get("role") != "Admin" {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	iss := newIssuer(t)
	other, _ := token.NewJWTIssuer("other-secret", "login-service", "workforce")
	expired, _ := token.NewJWTIssuer("secret", "login-service", "workforce",
		token.WithClock(func() time.Time { return time.Now().Add(-2 * token.Lifetime) }))

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"no token":       "Bearer",
		"garbage":        "Bearer not-a-token",
		"foreign key":    "Bearer " + signedToken(t, other),
		"expired":        "Bearer " + signedToken(t, expired),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, iss, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
