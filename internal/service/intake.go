package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/entity"
	"github.com/octobees/desamiantage-leads/internal/logging"
	"github.com/octobees/desamiantage-leads/internal/observability/metrics"
	"github.com/octobees/desamiantage-leads/internal/service/antispam"
	"github.com/octobees/desamiantage-leads/internal/service/scoring"
	"github.com/octobees/desamiantage-leads/internal/webhook"
)

const (
	// DefaultMaxBodyBytes caps the size of a lead submission.
	DefaultMaxBodyBytes int64 = 25000
	// DefaultJournalTimeout bounds how long a response may wait on the journal.
	DefaultJournalTimeout = 3 * time.Second
)

// Caller-facing error messages of the lead endpoint.
const (
	MsgPayloadTooLarge = "Payload trop volumineux."
	MsgInvalidPayload  = "Payload invalide"
	MsgTooFast         = "Soumission trop rapide"
	MsgTooManyRequests = "Trop de requêtes"
	MsgBannedContent   = "Contenu refusé."
	MsgCaptchaFailed   = "Vérification reCAPTCHA échouée"
	MsgWebhookFailed   = "Impossible d'enregistrer la demande"
	MsgInternalError   = "Erreur interne"
)

// CaptchaVerifier checks a client captcha token.
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) bool
}

// SubmissionJournal persists how each intake request ended.
type SubmissionJournal interface {
	Record(ctx context.Context, submission entity.Submission) error
}

// IntakeRequest is the transport-independent view of a lead POST.
type IntakeRequest struct {
	Body []byte
	// ContentLength is the declared body size, or -1 when unknown.
	ContentLength int64
	ForwardedFor  string
	RealIP        string
	UserAgent     string
	RequestID     string
}

// IntakeResult is the HTTP answer to give the caller. Body is either a
// dto.LeadResponse or a dto.ErrorResponse.
type IntakeResult struct {
	Status  int
	Body    any
	Outcome string
}

// IntakeOptions wires the collaborators of IntakeService. Only Validator,
// Timing and Limiter are needed; everything else degrades gracefully when nil.
type IntakeOptions struct {
	MaxBodyBytes   int64
	Validator      *Validator
	Timing         *antispam.TimingGuard
	Limiter        *antispam.RateLimiter
	Captcha        CaptchaVerifier
	Webhook        webhook.Forwarder
	Journal        SubmissionJournal
	JournalTimeout time.Duration
	Metrics        *metrics.IntakeMetrics
	Logger         *logging.Logger
	Now            func() time.Time
	NewID          func() uuid.UUID
}

// IntakeService runs the lead intake pipeline: size cap, schema, honeypot,
// timing, per-address limit, banned words, captcha and finally the webhook.
type IntakeService struct {
	maxBodyBytes   int64
	validator      *Validator
	timing         *antispam.TimingGuard
	limiter        *antispam.RateLimiter
	captcha        CaptchaVerifier
	webhook        webhook.Forwarder
	journal        SubmissionJournal
	journalTimeout time.Duration
	metrics        *metrics.IntakeMetrics
	logger         *logging.Logger
	now            func() time.Time
	newID          func() uuid.UUID
}

// NewIntakeService constructs an IntakeService, filling defaults for missing options.
func NewIntakeService(opts IntakeOptions) *IntakeService {
	s := &IntakeService{
		maxBodyBytes:   opts.MaxBodyBytes,
		validator:      opts.Validator,
		timing:         opts.Timing,
		limiter:        opts.Limiter,
		captcha:        opts.Captcha,
		webhook:        opts.Webhook,
		journal:        opts.Journal,
		journalTimeout: opts.JournalTimeout,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            opts.Now,
		newID:          opts.NewID,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	if s.journalTimeout <= 0 {
		s.journalTimeout = DefaultJournalTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	if s.validator == nil {
		s.validator = NewValidator("")
	}
	if s.timing == nil {
		s.timing = antispam.NewTimingGuard(antispam.DefaultMinSubmitDelay, s.now)
	}
	if s.limiter == nil {
		s.limiter = antispam.NewRateLimiter(antispam.DefaultWindow, antispam.WithClock(s.now))
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// MaxBodyBytes returns the body size cap, so transports can stop reading early.
func (s *IntakeService) MaxBodyBytes() int64 {
	return s.maxBodyBytes
}

// Submit runs one lead through the pipeline. It never returns an error: every
// outcome, including a panic in a collaborator, is mapped to a status and body.
func (s *IntakeService) Submit(ctx context.Context, req IntakeRequest) (result IntakeResult) {
	record := entity.Submission{
		ID:        s.newID(),
		UserAgent: req.UserAgent,
		RequestID: req.RequestID,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lead intake panicked",
				"request_id", req.RequestID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			record.Reason = fmt.Sprint(r)
			result = failure(http.StatusInternalServerError, MsgInternalError, entity.OutcomeInternalError)
		}
		s.finish(ctx, record, result)
	}()

	return s.run(ctx, req, &record)
}

func (s *IntakeService) run(ctx context.Context, req IntakeRequest, record *entity.Submission) IntakeResult {
	if req.ContentLength > s.maxBodyBytes || int64(len(req.Body)) > s.maxBodyBytes {
		record.Reason = fmt.Sprintf("declared %d bytes, read %d", req.ContentLength, len(req.Body))
		return failure(http.StatusRequestEntityTooLarge, MsgPayloadTooLarge, entity.OutcomeTooLarge)
	}

	lead, err := s.validator.Parse(req.Body)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			panic(err)
		}
		record.Reason = verr.Error()
		return IntakeResult{
			Status:  http.StatusUnprocessableEntity,
			Body:    dto.ErrorResponse{Error: MsgInvalidPayload, Details: verr.Fields},
			Outcome: entity.OutcomeInvalid,
		}
	}
	record.Prestation = lead.Prestation
	record.PostalCode = lead.PostalCode

	score := scoring.ScoreLead(scoring.LeadFeatures{
		Name:        lead.Name,
		Phone:       lead.Phone,
		PostalCode:  lead.PostalCode,
		City:        lead.City,
		Description: lead.Description,
	})
	record.LeadScore = &score

	ip := ClientIP(req.ForwardedFor, req.RealIP)
	record.IP = ip

	if lead.Honeypot != "" {
		s.logger.Info("honeypot filled, faking success", "request_id", req.RequestID, "ip", ip)
		return success(score, entity.OutcomeHoneypot)
	}

	if s.timing.TooFast(lead.SubmitDelay) {
		record.Reason = fmt.Sprintf("rendered at %d", lead.SubmitDelay)
		return failure(http.StatusTooManyRequests, MsgTooFast, entity.OutcomeTooFast)
	}

	if s.limiter.IsRateLimited(ip) {
		return failure(http.StatusTooManyRequests, MsgTooManyRequests, entity.OutcomeRateLimited)
	}

	if antispam.AnyBanned(lead.Name, lead.Description) {
		return failure(http.StatusBadRequest, MsgBannedContent, entity.OutcomeBannedContent)
	}

	if !s.verifyCaptcha(ctx, lead.RecaptchaToken, ip) {
		return failure(http.StatusBadRequest, MsgCaptchaFailed, entity.OutcomeCaptchaFailed)
	}

	scored := entity.ScoredLead{
		LeadID:       record.ID.String(),
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		PhoneE164:    lead.PhoneE164,
		PostalCode:   lead.PostalCode,
		City:         lead.City,
		BuildingType: lead.BuildingType,
		Prestation:   lead.Prestation,
		Description:  lead.Description,
		Delay:        lead.Delay,
		Consent:      lead.Consent,
		UTM:          lead.UTM,
		GCLID:        lead.GCLID,
		LeadScore:    score,
		UserAgent:    req.UserAgent,
		IP:           ip,
		ReceivedAt:   s.now().UTC().Format(time.RFC3339),
	}

	if s.webhook == nil || !s.webhook.Configured() {
		s.logger.Warn("lead webhook not configured, lead accepted without forwarding",
			"request_id", req.RequestID,
			"lead_id", scored.LeadID,
		)
		return success(score, entity.OutcomeAcceptedUnforwarded)
	}

	started := time.Now()
	err = s.webhook.Forward(ctx, scored, req.RequestID)
	s.metrics.ObserveOutbound(metrics.TargetWebhook, time.Since(started).Seconds())
	if err != nil {
		s.logger.Error("lead webhook failed",
			"request_id", req.RequestID,
			"lead_id", scored.LeadID,
			"error", err,
		)
		record.Reason = err.Error()
		return failure(http.StatusBadGateway, MsgWebhookFailed, entity.OutcomeWebhookFailed)
	}

	return success(score, entity.OutcomeForwarded)
}

func (s *IntakeService) verifyCaptcha(ctx context.Context, token, ip string) bool {
	if s.captcha == nil {
		return true
	}
	if !s.captcha.Enabled() || strings.TrimSpace(token) == "" {
		return s.captcha.Verify(ctx, token, ip)
	}
	started := time.Now()
	passed := s.captcha.Verify(ctx, token, ip)
	s.metrics.ObserveOutbound(metrics.TargetRecaptcha, time.Since(started).Seconds())
	return passed
}

func (s *IntakeService) finish(ctx context.Context, record entity.Submission, result IntakeResult) {
	s.metrics.ObserveOutcome(result.Outcome)
	if result.Outcome == entity.OutcomeForwarded || result.Outcome == entity.OutcomeAcceptedUnforwarded {
		if record.LeadScore != nil {
			s.metrics.ObserveScore(*record.LeadScore)
		}
	}

	if s.journal == nil {
		return
	}
	record.Outcome = result.Outcome
	record.CreatedAt = s.now().UTC()
	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.journalTimeout)
	defer cancel()
	if err := s.journal.Record(journalCtx, record); err != nil {
		s.logger.Error("failed to journal submission",
			"request_id", record.RequestID,
			"outcome", record.Outcome,
			"error", err,
		)
	}
}

// ClientIP picks the first X-Forwarded-For entry, else X-Real-IP, else "".
func ClientIP(forwardedFor, realIP string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return strings.TrimSpace(realIP)
}

func success(score int, outcome string) IntakeResult {
	return IntakeResult{
		Status:  http.StatusOK,
		Body:    dto.LeadResponse{OK: true, LeadScore: score},
		Outcome: outcome,
	}
}

func failure(status int, message, outcome string) IntakeResult {
	return IntakeResult{
		Status:  status,
		Body:    dto.ErrorResponse{Error: message},
		Outcome: outcome,
	}
}
