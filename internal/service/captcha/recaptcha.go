package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/octobees/desamiantage-leads/internal/logging"
)

const (
	// DefaultEndpoint is Google's reCAPTCHA verification API.
	DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"
	// DefaultMinScore is the reCAPTCHA v3 score a response must exceed.
	DefaultMinScore    = 0.5
	defaultHTTPTimeout = 8 * time.Second
)

var tracer = otel.Tracer("desamiantage.internal.service.captcha")

// HTTPClient abstracts HTTP requests to simplify testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks reCAPTCHA tokens against the verification endpoint.
type Verifier struct {
	secret   string
	endpoint string
	minScore float64
	client   HTTPClient
	logger   *logging.Logger
}

// Option configures optional dependencies.
type Option func(*Verifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(v *Verifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithEndpoint overrides the verification URL.
func WithEndpoint(endpoint string) Option {
	return func(v *Verifier) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			v.endpoint = endpoint
		}
	}
}

// WithMinScore overrides the score threshold.
func WithMinScore(score float64) Option {
	return func(v *Verifier) {
		v.minScore = score
	}
}

// WithLogger sets the logger used for verification failures.
func WithLogger(logger *logging.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier builds a verifier. An empty secret disables verification.
func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret:   strings.TrimSpace(secret),
		endpoint: DefaultEndpoint,
		minScore: DefaultMinScore,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify passes when no secret or no token is present, so unconfigured environments
// keep working. Otherwise it requires success and a score above the threshold;
// transport or decoding errors fail the check.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) bool {
	token = strings.TrimSpace(token)
	if !v.Enabled() || token == "" {
		return true
	}

	ctx, span := tracer.Start(ctx, "captcha.recaptcha.verify")
	defer span.End()

	result, err := v.siteVerify(ctx, token, remoteIP)
	if err != nil {
		span.RecordError(err)
		v.logger.Error("recaptcha verification failed", "error", err)
		return false
	}

	score := 0.0
	if result.Score != nil {
		score = *result.Score
	}
	span.SetAttributes(
		attribute.Bool("recaptcha.success", result.Success),
		attribute.Float64("recaptcha.score", score),
	)

	passed := result.Success && score > v.minScore
	if !passed {
		v.logger.Warn("recaptcha rejected token", "success", result.Success, "score", score, "error_codes", result.ErrorCodes)
	}
	return passed
}

func (v *Verifier) siteVerify(ctx context.Context, token, remoteIP string) (*siteVerifyResponse, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &result, nil
}
