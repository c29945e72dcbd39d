package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/link-dashboard/docs"
	"github.com/99minutos/link-dashboard/internal/api/handler"
	"github.com/99minutos/link-dashboard/internal/api/middleware"
	"github.com/99minutos/link-dashboard/internal/core/ports"
)

// Deps holds everything the router needs to build its handlers.
type Deps struct {
	Projects    ports.ProjectService
	Auth        ports.AuthService
	Repairer    ports.MigrationRepairer
	JWTSecret   string
	RepairGrace time.Duration
	// Checks are the readiness checks, keyed by dependency name.
	Checks map[string]handler.Checker
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	linkHandler := handler.NewLinkHandler(d.Projects)
	domainHandler := handler.NewDomainHandler(d.Projects)
	projectHandler := handler.NewProjectHandler(d.Projects)
	adminHandler := handler.NewAdminHandler(d.Repairer, d.RepairGrace)
	healthHandler := handler.NewHealthHandler(d.Checks)

	authMiddleware := middleware.Auth(d.JWTSecret)
	guard := middleware.NewProjectGuard(d.Projects)

	// scoped answers every verb on a project route: the method check comes
	// first, then authentication, then the project guard.
	scoped := func(method string, h middleware.ProjectHandlerFunc) echo.HandlerFunc {
		return middleware.AllowMethods(method)(authMiddleware(guard.WithProject(h)))
	}

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Project routes ---
	e.POST("/projects", projectHandler.Create, authMiddleware)
	e.Any("/projects/:slug/links/count", scoped(http.MethodGet, linkHandler.Count))
	e.Any("/projects/:slug/links/random", scoped(http.MethodGet, linkHandler.Random))
	e.Any("/projects/:slug/domain", scoped(http.MethodPut, domainHandler.Update))
	e.Any("/domains/:domain/exists", middleware.AllowMethods(http.MethodGet)(domainHandler.Exists))

	// --- Admin routes (superadmins only) ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC())
	admin.POST("/migrations/repair", adminHandler.RepairMigrations)

	// --- Health checks (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())  // prometheus scrape endpoint
	e.GET("/swagger/*", echoSwagger.WrapHandler)    // API docs

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
