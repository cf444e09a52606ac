package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/workforce/login-service/internal/api/handler"
	"github.com/workforce/login-service/internal/api/middleware"
	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/core/ports"
)

// Deps are the collaborators the HTTP surface needs. Journal may be nil.
type Deps struct {
	Users   ports.UserService
	Tokens  middleware.TokenVerifier
	Journal ports.CompensationJournal
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check
	Log    zerolog.Logger
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "login_http",
		Registerer: d.Registerer,
	}))
	e.Use(middleware.ForwardAuthorization())

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API v1 ---
	authHandler := handler.NewAuthHandler(d.Users)
	userHandler := handler.NewUserHandler(d.Users)
	orphanHandler := handler.NewOrphanHandler(d.Journal, d.Log)
	requireAuth := middleware.Auth(d.Tokens)

	v1 := e.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/users", userHandler.List, requireAuth)

	admin := v1.Group("/admin", requireAuth, middleware.RBAC(adminRoles()...))
	admin.GET("/orphans", orphanHandler.List)

	return e
}

func adminRoles() []string {
	var out []string
	for _, r := range domain.DefaultRoles {
		if r.ID == domain.RoleAdmin || r.ID == domain.RoleSuperAdmin {
			out = append(out, r.Description)
		}
	}
	return out
}
