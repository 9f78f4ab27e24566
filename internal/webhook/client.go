package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/idtoken"

	"github.com/octobees/desamiantage-leads/internal/entity"
	"github.com/octobees/desamiantage-leads/internal/logging"
)

const (
	defaultTimeout = 8 * time.Second
	maxErrorBody   = 2048
)

// ErrNotConfigured is returned when forwarding without a webhook URL.
var ErrNotConfigured = errors.New("webhook url not configured")

var tracer = otel.Tracer("desamiantage.internal.webhook")

// StatusError reports a non-2xx answer from the webhook.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// Forwarder posts scored leads to the system of record.
type Forwarder interface {
	Configured() bool
	Forward(ctx context.Context, lead entity.ScoredLead, requestID string) error
}

// Options configures a Client.
type Options struct {
	URL string
	// Audience enables Google ID-token authentication when HTTPClient is nil.
	Audience   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client posts JSON leads to the configured webhook.
type Client struct {
	client *http.Client
	url    string
}

// NewClient builds a webhook client. With an audience and no explicit client it
// tries an ID-token client, falling back to a plain one with a warning when
// credentials are missing.
func NewClient(ctx context.Context, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	client := opts.HTTPClient
	if client == nil && opts.Audience != "" {
		idc, err := idtoken.NewClient(ctx, opts.Audience)
		if err != nil {
			logger.Warn("webhook identity token unavailable, forwarding without authentication",
				"audience", opts.Audience,
				"error", err,
			)
		} else {
			idc.Timeout = timeout
			client = idc
		}
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Client{client: client, url: strings.TrimSpace(opts.URL)}
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Forward posts the lead as JSON. Any non-2xx status is an error.
func (c *Client) Forward(ctx context.Context, lead entity.ScoredLead, requestID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	ctx, span := tracer.Start(ctx, "webhook.forward_lead")
	defer span.End()
	span.SetAttributes(
		attribute.String("lead.id", lead.LeadID),
		attribute.Int("lead.score", lead.LeadScore),
	)

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: extractError(resp.Body)}
		span.RecordError(statusErr)
		return statusErr
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

var _ Forwarder = (*Client)(nil)
