package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/desamiantage-leads/internal/auth"
	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/handler"
	"github.com/octobees/desamiantage-leads/internal/logging"
	"github.com/octobees/desamiantage-leads/internal/observability/metrics"
	"github.com/octobees/desamiantage-leads/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"https://www.example.fr"},
		RateLimitLead:  config.RateLimitConfig{Requests: 100, Interval: time.Minute},
	}
}

func newServer(t *testing.T, withAdmin bool) (*echo.Echo, *auth.JWTManager) {
	t.Helper()
	reg := prometheus.NewRegistry()
	intake := service.NewIntakeService(service.IntakeOptions{
		Logger:  logging.Discard(),
		Metrics: metrics.NewIntakeMetrics(reg),
	})

	handlers := Handlers{
		Lead:    handler.NewLeadHandler(intake),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	var jwtManager *auth.JWTManager
	if withAdmin {
		hashed, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		jwtManager = auth.NewJWTManager("secret", time.Hour)
		handlers.Auth = handler.NewAuthHandler(service.NewAdminAuthService("ops@example.fr", string(hashed), jwtManager))
		handlers.Submissions = handler.NewSubmissionsHandler(service.NewSubmissionsService(nil))
	}

	e := echo.New()
	Register(e, testConfig(), jwtManager, handlers)
	return e, jwtManager
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterPublicRoutes(t *testing.T) {
	e, _ := newServer(t, false)

	if rec := do(e, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	rec := do(e, httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(`{"nom":"X"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	rec = do(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `desamiantage_intake_submissions_total{outcome="invalid"} 1`) {
		t.Fatalf("expected intake counter in metrics output, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterCORSPreflight(t *testing.T) {
	e, _ := newServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/lead", nil)
	req.Header.Set(echo.HeaderOrigin, "https://www.example.fr")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := do(e, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://www.example.fr" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestRegisterAdminDisabled(t *testing.T) {
	e, _ := newServer(t, false)

	if rec := do(e, httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without admin api, got %d", rec.Code)
	}
	if rec := do(e, httptest.NewRequest(http.MethodPost, "/auth/login", nil)); rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected login route to be absent, got %d", rec.Code)
	}
}

func TestRegisterAdminRequiresToken(t *testing.T) {
	e, jwtManager := newServer(t, true)

	if rec := do(e, httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := jwtManager.GenerateToken("viewer", "v@example.fr", "viewer")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	if rec := do(e, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin role, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ops@example.fr","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if rec := do(e, req); rec.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d", rec.Code)
	}
}
