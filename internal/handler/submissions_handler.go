package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/service"
)

// SubmissionsHandler exposes the intake journal to operators.
type SubmissionsHandler struct {
	service *service.SubmissionsService
}

// NewSubmissionsHandler constructs a SubmissionsHandler.
func NewSubmissionsHandler(svc *service.SubmissionsService) *SubmissionsHandler {
	return &SubmissionsHandler{service: svc}
}

// List handles GET /admin/submissions requests.
func (h *SubmissionsHandler) List(c echo.Context) error {
	var filter dto.SubmissionFilter
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Error(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	filter.Outcome = strings.TrimSpace(c.QueryParam("outcome"))

	submissions, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrUnknownOutcome) {
			return Error(c, http.StatusBadRequest, "unknown outcome")
		}
		return Error(c, http.StatusInternalServerError, "unable to list submissions")
	}

	return SuccessWithMeta(c, http.StatusOK, "", submissions, ListMeta{Count: len(submissions), Limit: service.EffectiveLimit(filter.Limit)})
}

