package entity

import (
	"time"

	"github.com/google/uuid"
)

// Journal outcomes, one per way an intake request can end.
const (
	OutcomeForwarded           = "forwarded"
	OutcomeAcceptedUnforwarded = "accepted_unforwarded"
	OutcomeHoneypot            = "honeypot"
	OutcomeTooLarge            = "too_large"
	OutcomeInvalid             = "invalid"
	OutcomeTooFast             = "too_fast"
	OutcomeRateLimited         = "rate_limited"
	OutcomeBannedContent       = "banned_content"
	OutcomeCaptchaFailed       = "captcha_failed"
	OutcomeWebhookFailed       = "webhook_failed"
	OutcomeInternalError       = "internal_error"
)

// Outcomes lists every journal outcome.
var Outcomes = []string{
	OutcomeForwarded,
	OutcomeAcceptedUnforwarded,
	OutcomeHoneypot,
	OutcomeTooLarge,
	OutcomeInvalid,
	OutcomeTooFast,
	OutcomeRateLimited,
	OutcomeBannedContent,
	OutcomeCaptchaFailed,
	OutcomeWebhookFailed,
	OutcomeInternalError,
}

// IsOutcome reports whether value names a known outcome.
func IsOutcome(value string) bool {
	for _, outcome := range Outcomes {
		if outcome == value {
			return true
		}
	}
	return false
}

// Submission is one journal row describing how an intake request ended.
type Submission struct {
	ID         uuid.UUID `json:"id"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	LeadScore  *int      `json:"lead_score,omitempty"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Prestation string    `json:"prestation,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
