package lambdaapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/logging"
	"github.com/octobees/desamiantage-leads/internal/service"
)

const msgMethodNotAllowed = "Méthode non autorisée"

// Handler serves the lead intake behind an API Gateway HTTP API.
type Handler struct {
	intake      *service.IntakeService
	allowOrigin string
	logger      *logging.Logger
}

// NewHandler builds a Lambda handler. allowOrigin is echoed in CORS headers ("*" when empty).
func NewHandler(intake *service.IntakeService, allowOrigin string, logger *logging.Logger) *Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{intake: intake, allowOrigin: allowOrigin, logger: logger}
}

// Handle is the lambda.Start entrypoint.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch request.RequestContext.HTTP.Method {
	case http.MethodOptions:
		return h.createResponse(http.StatusNoContent, nil), nil
	case http.MethodPost:
	default:
		return h.createResponse(http.StatusMethodNotAllowed, dto.ErrorResponse{Error: msgMethodNotAllowed}), nil
	}

	headers := lowerKeys(request.Headers)
	contentLength := int64(-1)
	if raw := headers["content-length"]; raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			contentLength = n
		}
	}

	var body []byte
	if contentLength <= h.intake.MaxBodyBytes() {
		body = []byte(request.Body)
		if request.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(request.Body)
			if err != nil {
				h.logger.Warn("undecodable base64 lead body", "request_id", request.RequestContext.RequestID, "error", err)
				decoded = nil
			}
			body = decoded
		}
	}

	realIP := headers["x-real-ip"]
	if realIP == "" {
		realIP = request.RequestContext.HTTP.SourceIP
	}
	requestID := headers["x-request-id"]
	if requestID == "" {
		requestID = request.RequestContext.RequestID
	}

	result := h.intake.Submit(ctx, service.IntakeRequest{
		Body:          body,
		ContentLength: contentLength,
		ForwardedFor:  headers["x-forwarded-for"],
		RealIP:        realIP,
		UserAgent:     headers["user-agent"],
		RequestID:     requestID,
	})

	return h.createResponse(result.Status, result.Body), nil
}

func (h *Handler) createResponse(statusCode int, body any) events.APIGatewayV2HTTPResponse {
	headers := map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  h.allowOrigin,
		"Access-Control-Allow-Methods": "POST,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type,X-Request-ID",
	}
	if body == nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: statusCode, Headers: headers}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("failed to encode lambda response", "error", err)
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"Erreur interne"}`,
			Headers:    headers,
		}
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Body:       string(jsonBody),
		Headers:    headers,
	}
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[strings.ToLower(key)] = value
	}
	return out
}
