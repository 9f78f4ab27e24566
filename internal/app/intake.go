// Package app assembles the intake pipeline from configuration for the
// HTTP server and the Lambda entrypoint.
package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/logging"
	"github.com/octobees/desamiantage-leads/internal/observability/metrics"
	"github.com/octobees/desamiantage-leads/internal/service"
	"github.com/octobees/desamiantage-leads/internal/service/antispam"
	"github.com/octobees/desamiantage-leads/internal/service/captcha"
	"github.com/octobees/desamiantage-leads/internal/webhook"
)

// IntakeDeps carries the optional collaborators that depend on the runtime.
type IntakeDeps struct {
	Logger     *logging.Logger
	Registerer prometheus.Registerer
	Journal    service.SubmissionJournal
}

// NewIntake builds the intake service described by cfg.
func NewIntake(ctx context.Context, cfg *config.Config, deps IntakeDeps) *service.IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.WebhookURL == "" {
		logger.Warn("LEAD_WEBHOOK_URL is not set, leads will be accepted without forwarding")
	}
	if cfg.RecaptchaSecret == "" {
		logger.Warn("RECAPTCHA_SECRET is not set, captcha verification is disabled")
	}

	verifier := captcha.NewVerifier(cfg.RecaptchaSecret,
		captcha.WithEndpoint(cfg.RecaptchaVerifyURL),
		captcha.WithMinScore(cfg.RecaptchaMinScore),
		captcha.WithLogger(logger),
	)
	forwarder := webhook.NewClient(ctx, webhook.Options{
		URL:      cfg.WebhookURL,
		Audience: cfg.WebhookAudience,
		Timeout:  cfg.OutboundTimeout,
		Logger:   logger,
	})

	return service.NewIntakeService(service.IntakeOptions{
		MaxBodyBytes: cfg.MaxBodyBytes,
		Validator:    service.NewValidator(cfg.HoneypotField),
		Timing:       antispam.NewTimingGuard(cfg.MinSubmitDelay, nil),
		Limiter:      antispam.NewRateLimiter(cfg.RateLimitWindow),
		Captcha:      verifier,
		Webhook:      forwarder,
		Metrics:      metrics.NewIntakeMetrics(deps.Registerer),
		Journal:      deps.Journal,
		Logger:       logger,
	})
}
