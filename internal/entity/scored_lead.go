package entity

import "github.com/octobees/desamiantage-leads/internal/dto"

// ScoredLead is the only representation of a lead sent to the webhook.
// Honeypot, captcha token and submit delay are never part of it.
type ScoredLead struct {
	LeadID       string  `json:"leadId"`
	Name         string  `json:"nom"`
	Email        string  `json:"email"`
	Phone        string  `json:"telephone"`
	PhoneE164    string  `json:"phoneE164"`
	PostalCode   string  `json:"codePostal"`
	City         string  `json:"ville"`
	BuildingType string  `json:"typeBatiment"`
	Prestation   string  `json:"prestation"`
	Description  string  `json:"description"`
	Delay        string  `json:"delai"`
	Consent      bool    `json:"consentement"`
	UTM          dto.UTM `json:"utm"`
	GCLID        string  `json:"gclid"`
	LeadScore    int     `json:"leadScore"`
	UserAgent    string  `json:"userAgent"`
	IP           string  `json:"ip"`
	ReceivedAt   string  `json:"receivedAt"`
}
