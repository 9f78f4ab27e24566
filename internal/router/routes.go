package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/desamiantage-leads/internal/auth"
	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/handler"
	middlewarepkg "github.com/octobees/desamiantage-leads/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router. Auth and Submissions
// are nil when the admin API is disabled.
type Handlers struct {
	Lead        *handler.LeadHandler
	Auth        *handler.AuthHandler
	Submissions *handler.SubmissionsHandler
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	metricsHandler := handlers.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metricsHandler))

	lead := e.Group("/api", echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	lead.POST("/lead", handlers.Lead.Submit, middlewarepkg.LeadThrottle(cfg.RateLimitLead))
	lead.OPTIONS("/lead", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	if handlers.Auth == nil || handlers.Submissions == nil || jwtManager == nil {
		return
	}

	e.POST("/auth/login", handlers.Auth.Login)

	admin := e.Group("/admin", middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole(auth.RoleAdmin))
	admin.GET("/submissions", handlers.Submissions.List)
}
