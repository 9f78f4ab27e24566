package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/desamiantage-leads/internal/dto"
)

// JSON keys posted by the lead forms.
const (
	FieldName           = "nom"
	FieldEmail          = "email"
	FieldPhone          = "telephone"
	FieldPostalCode     = "codePostal"
	FieldCity           = "ville"
	FieldBuildingType   = "typeBatiment"
	FieldPrestation     = "prestation"
	FieldDescription    = "description"
	FieldDelay          = "delai"
	FieldConsent        = "consentement"
	FieldRecaptchaToken = "recaptchaToken"
	FieldSubmitDelay    = "submitDelay"
	FieldUTM            = "utm"
	FieldGCLID          = "gclid"
	fieldBody           = "body"

	// DefaultHoneypotField is used when no honeypot name is configured.
	DefaultHoneypotField = "website"

	defaultPhoneRegion  = "FR"
	maxDescriptionRunes = 800
)

var (
	namePattern       = regexp.MustCompile(`^[\p{L}\p{M}\s.'’-]+$`)
	emailPattern      = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.\-\p{L}]+\.[a-z\p{L}]{2,}$`)
	phonePattern      = regexp.MustCompile(`^(?:\+33\s?|0)[1-9](?:[\s.-]?\d{2}){4}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	idnaProfile       = idna.Lookup
)

// BuildingTypes lists the accepted typeBatiment values.
var BuildingTypes = []string{"House", "Apartment", "Commercial", "Industrial"}

// Prestations lists the accepted prestation values of the service catalog.
var Prestations = []string{"diagnostic-amiante", "retrait-amiante", "desamiantage-toiture", "desamiantage-industriel"}

// Delays lists the accepted delai values.
var Delays = []string{"Urgent 48h", "< 7 jours", "> 7 jours"}

// ValidatedLead is a lead submission whose fields passed every rule, trimmed and normalized.
type ValidatedLead struct {
	Name           string
	Email          string
	Phone          string
	PhoneE164      string
	PostalCode     string
	City           string
	BuildingType   string
	Prestation     string
	Description    string
	Delay          string
	Consent        bool
	Honeypot       string
	RecaptchaToken string
	SubmitDelay    int64
	UTM            dto.UTM
	GCLID          string
}

// ValidationError lists every violated rule keyed by JSON field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], ", ")))
	}
	return "invalid lead: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// Validator enforces the lead submission schema.
type Validator struct {
	honeypotField string
	region        string
}

// NewValidator builds a validator reading the honeypot under the given JSON key.
func NewValidator(honeypotField string) *Validator {
	honeypotField = strings.TrimSpace(honeypotField)
	if honeypotField == "" {
		honeypotField = DefaultHoneypotField
	}
	return &Validator{honeypotField: honeypotField, region: defaultPhoneRegion}
}

// Parse decodes and validates a raw JSON body. On failure the error is a
// *ValidationError carrying every offending field, not only the first.
func (v *Validator) Parse(body []byte) (ValidatedLead, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		verr := &ValidationError{}
		verr.add(fieldBody, "Le corps de la requête doit être un objet JSON")
		return ValidatedLead{}, verr
	}

	r := fieldReader{raw: raw, errs: &ValidationError{}}
	lead := ValidatedLead{
		Name:           r.requiredString(FieldName),
		Email:          strings.ToLower(r.requiredString(FieldEmail)),
		Phone:          r.requiredString(FieldPhone),
		PostalCode:     r.requiredString(FieldPostalCode),
		City:           r.requiredString(FieldCity),
		BuildingType:   r.requiredString(FieldBuildingType),
		Prestation:     r.requiredString(FieldPrestation),
		Description:    r.requiredString(FieldDescription),
		Delay:          r.requiredString(FieldDelay),
		Consent:        r.consent(FieldConsent),
		Honeypot:       r.honeypot(v.honeypotField),
		RecaptchaToken: r.optionalString(FieldRecaptchaToken),
		SubmitDelay:    r.timestamp(FieldSubmitDelay),
		UTM:            r.utm(FieldUTM),
		GCLID:          r.optionalString(FieldGCLID),
	}

	v.checkRules(&lead, r)

	if !r.errs.empty() {
		return ValidatedLead{}, r.errs
	}

	lead.PhoneE164 = normalizePhone(lead.Phone, v.region)
	return lead, nil
}

func (v *Validator) checkRules(lead *ValidatedLead, r fieldReader) {
	if r.ok(FieldName) {
		if n := utf8.RuneCountInString(lead.Name); n < 2 || n > 80 {
			r.errs.add(FieldName, "Le nom doit contenir entre 2 et 80 caractères")
		} else if !namePattern.MatchString(lead.Name) {
			r.errs.add(FieldName, "Le nom contient des caractères non autorisés")
		}
	}
	if r.ok(FieldEmail) && !isEmailValid(lead.Email) {
		r.errs.add(FieldEmail, "Adresse email invalide")
	}
	if r.ok(FieldPhone) && !phonePattern.MatchString(lead.Phone) {
		r.errs.add(FieldPhone, "Numéro de téléphone invalide")
	}
	if r.ok(FieldPostalCode) && !postalCodePattern.MatchString(lead.PostalCode) {
		r.errs.add(FieldPostalCode, "Le code postal doit contenir 5 chiffres")
	}
	if r.ok(FieldCity) {
		if n := utf8.RuneCountInString(lead.City); n < 2 || n > 80 {
			r.errs.add(FieldCity, "La ville doit contenir entre 2 et 80 caractères")
		}
	}
	if r.ok(FieldBuildingType) && !oneOf(lead.BuildingType, BuildingTypes) {
		r.errs.add(FieldBuildingType, "Type de bâtiment inconnu")
	}
	if r.ok(FieldPrestation) && !oneOf(lead.Prestation, Prestations) {
		r.errs.add(FieldPrestation, "Prestation inconnue")
	}
	if r.ok(FieldDescription) {
		if n := utf8.RuneCountInString(lead.Description); n < 20 || n > maxDescriptionRunes {
			r.errs.add(FieldDescription, fmt.Sprintf("La description doit contenir entre 20 et %d caractères", maxDescriptionRunes))
		}
	}
	if r.ok(FieldDelay) && !oneOf(lead.Delay, Delays) {
		r.errs.add(FieldDelay, "Délai inconnu")
	}
}

// fieldReader decodes individual fields, recording type and presence errors.
type fieldReader struct {
	raw  map[string]json.RawMessage
	errs *ValidationError
}

func (r fieldReader) ok(field string) bool {
	_, failed := r.errs.Fields[field]
	return !failed
}

func (r fieldReader) lookup(field string) (json.RawMessage, bool) {
	value, ok := r.raw[field]
	if !ok || string(value) == "null" {
		return nil, false
	}
	return value, true
}

func (r fieldReader) requiredString(field string) string {
	value, ok := r.lookup(field)
	if !ok {
		r.errs.add(field, "Champ requis")
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		r.errs.add(field, "Doit être une chaîne de caractères")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		r.errs.add(field, "Champ requis")
	}
	return s
}

func (r fieldReader) optionalString(field string) string {
	value, ok := r.lookup(field)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		r.errs.add(field, "Doit être une chaîne de caractères")
		return ""
	}
	return strings.TrimSpace(s)
}

// honeypot never fails validation: a non-string value is kept as its raw JSON
// text so that it still reads as filled. The value is not trimmed, any
// character counts as filled.
func (r fieldReader) honeypot(field string) string {
	value, ok := r.lookup(field)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return string(value)
	}
	return s
}

func (r fieldReader) consent(field string) bool {
	value, ok := r.lookup(field)
	var accepted bool
	if !ok || json.Unmarshal(value, &accepted) != nil || !accepted {
		r.errs.add(field, "Consentement requis")
		return false
	}
	return true
}

func (r fieldReader) timestamp(field string) int64 {
	value, ok := r.lookup(field)
	if !ok {
		r.errs.add(field, "Champ requis")
		return 0
	}
	var ms int64
	if err := json.Unmarshal(value, &ms); err != nil || ms < 0 {
		r.errs.add(field, "Doit être un entier positif")
		return 0
	}
	return ms
}

func (r fieldReader) utm(field string) dto.UTM {
	value, ok := r.lookup(field)
	if !ok {
		return dto.UTM{}
	}
	var in struct {
		Source   *string `json:"source"`
		Medium   *string `json:"medium"`
		Campaign *string `json:"campaign"`
		Term     *string `json:"term"`
		Content  *string `json:"content"`
	}
	if err := json.Unmarshal(value, &in); err != nil {
		r.errs.add(field, "Paramètres UTM invalides")
		return dto.UTM{}
	}
	return dto.UTM{
		Source:   deref(in.Source),
		Medium:   deref(in.Medium),
		Campaign: deref(in.Campaign),
		Term:     deref(in.Term),
		Content:  deref(in.Content),
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func oneOf(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

func isEmailValid(email string) bool {
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if !isDomainValid(domain) {
		return false
	}
	ascii, err := idnaProfile.ToASCII(domain)
	return err == nil && ascii != ""
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

func normalizePhone(raw, region string) string {
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
