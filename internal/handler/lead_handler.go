package handler

import (
	"io"

	"github.com/labstack/echo/v4"

	middlewarepkg "github.com/octobees/desamiantage-leads/internal/middleware"
	"github.com/octobees/desamiantage-leads/internal/service"
)

// LeadHandler exposes the public lead intake endpoint.
type LeadHandler struct {
	intake *service.IntakeService
}

// NewLeadHandler constructs a LeadHandler.
func NewLeadHandler(intake *service.IntakeService) *LeadHandler {
	return &LeadHandler{intake: intake}
}

// Submit handles POST /api/lead requests.
func (h *LeadHandler) Submit(c echo.Context) error {
	req := c.Request()
	maxBytes := h.intake.MaxBodyBytes()

	var body []byte
	if req.ContentLength <= maxBytes {
		// One extra byte lets the service notice an undeclared oversized body.
		data, err := io.ReadAll(io.LimitReader(req.Body, maxBytes+1))
		if err == nil {
			body = data
		}
	}

	result := h.intake.Submit(req.Context(), service.IntakeRequest{
		Body:          body,
		ContentLength: req.ContentLength,
		ForwardedFor:  req.Header.Get(echo.HeaderXForwardedFor),
		RealIP:        req.Header.Get(echo.HeaderXRealIP),
		UserAgent:     req.UserAgent(),
		RequestID:     middlewarepkg.RequestIDFromContext(c),
	})

	return c.JSON(result.Status, result.Body)
}
