package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		FieldName:         "  Claire Martin ",
		FieldEmail:        "Claire@Example.com",
		FieldPhone:        "+33 6 45 67 89 10",
		FieldPostalCode:   "75002",
		FieldCity:         "Paris",
		FieldBuildingType: "House",
		FieldPrestation:   "diagnostic-amiante",
		FieldDescription:  "Diagnostic avant travaux dans un appartement haussmannien.",
		FieldDelay:        "< 7 jours",
		FieldConsent:      true,
		FieldSubmitDelay:  1_700_000_000_000,
		"website":         "",
	}
}

func encode(t *testing.T, payload map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestParseValidPayloadNormalizes(t *testing.T) {
	payload := validPayload()
	payload[FieldUTM] = map[string]any{"source": " google ", "medium": nil}
	payload[FieldGCLID] = nil
	payload[FieldRecaptchaToken] = "tok"

	lead, err := NewValidator("").Parse(encode(t, payload))
	require.NoError(t, err)

	assert.Equal(t, "Claire Martin", lead.Name)
	assert.Equal(t, "claire@example.com", lead.Email)
	assert.Equal(t, "+33645678910", lead.PhoneE164)
	assert.Equal(t, "google", lead.UTM.Source)
	assert.Equal(t, "", lead.UTM.Medium)
	assert.Equal(t, "", lead.GCLID)
	assert.Equal(t, "tok", lead.RecaptchaToken)
	assert.Equal(t, int64(1_700_000_000_000), lead.SubmitDelay)
	assert.True(t, lead.Consent)
	assert.Empty(t, lead.Honeypot)
}

func TestParseMissingEverythingReportsAllFields(t *testing.T) {
	_, err := NewValidator("").Parse([]byte(`{"nom":"X"}`))
	fields := fieldErrors(t, err)

	for _, key := range []string{FieldName, FieldEmail, FieldPhone, FieldPostalCode, FieldCity, FieldBuildingType, FieldPrestation, FieldDescription, FieldDelay, FieldConsent, FieldSubmitDelay} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, FieldUTM)
	assert.NotContains(t, fields, FieldGCLID)
	assert.NotContains(t, fields, "website")
}

func TestParseRejectsNonObjectBodies(t *testing.T) {
	for _, body := range []string{"", "null", "[1,2]", "{", `"text"`} {
		_, err := NewValidator("").Parse([]byte(body))
		assert.Contains(t, fieldErrors(t, err), fieldBody, "body %q", body)
	}
}

func TestParseFieldRules(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
	}{
		{"name too short", FieldName, "X"},
		{"name with digits", FieldName, "R2D2 Robot"},
		{"name too long", FieldName, strings.Repeat("a", 81)},
		{"email syntax", FieldEmail, "claire@"},
		{"email domain", FieldEmail, "claire@example..com"},
		{"phone foreign", FieldPhone, "+1 415 555 1234"},
		{"phone too short", FieldPhone, "06 45 67"},
		{"postal four digits", FieldPostalCode, "7500"},
		{"postal letters", FieldPostalCode, "75A02"},
		{"city too short", FieldCity, "P"},
		{"unknown building", FieldBuildingType, "Castle"},
		{"unknown prestation", FieldPrestation, "plomberie"},
		{"description too short", FieldDescription, "Trop court"},
		{"description too long", FieldDescription, strings.Repeat("a", 801)},
		{"unknown delay", FieldDelay, "demain"},
		{"consent false", FieldConsent, false},
		{"consent string", FieldConsent, "true"},
		{"negative submit delay", FieldSubmitDelay, -1},
		{"fractional submit delay", FieldSubmitDelay, 12.5},
		{"string submit delay", FieldSubmitDelay, "123"},
		{"utm not object", FieldUTM, "google"},
		{"gclid number", FieldGCLID, 42},
		{"name not string", FieldName, 12},
		{"whitespace only city", FieldCity, "   "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			payload[tc.field] = tc.value

			_, err := NewValidator("").Parse(encode(t, payload))
			fields := fieldErrors(t, err)
			assert.Len(t, fields, 1, "only %s should fail: %v", tc.field, fields)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestParseConsentMessage(t *testing.T) {
	payload := validPayload()
	delete(payload, FieldConsent)

	_, err := NewValidator("").Parse(encode(t, payload))
	assert.Equal(t, []string{"Consentement requis"}, fieldErrors(t, err)[FieldConsent])
}

func TestParseAcceptedVariants(t *testing.T) {
	variants := map[string]any{
		FieldPhone:        "0645678910",
		FieldName:         "Jean-Pierre d’Arcy",
		FieldCity:         "Saint-Étienne",
		FieldDelay:        "Urgent 48h",
		FieldBuildingType: "Industrial",
		FieldEmail:        "contact@désamiantage.fr",
	}

	for field, value := range variants {
		payload := validPayload()
		payload[field] = value
		_, err := NewValidator("").Parse(encode(t, payload))
		assert.NoError(t, err, "field %s=%v", field, value)
	}
}

func TestParseHoneypotNeverFailsValidation(t *testing.T) {
	payload := validPayload()
	delete(payload, "website")
	payload["fax"] = "http://spam.example"

	lead, err := NewValidator("fax").Parse(encode(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "http://spam.example", lead.Honeypot)

	payload["fax"] = 12
	lead, err = NewValidator("fax").Parse(encode(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "12", lead.Honeypot)

	payload["fax"] = "  "
	lead, err = NewValidator("fax").Parse(encode(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "  ", lead.Honeypot)

	// The default key is ignored once a custom honeypot name is configured.
	payload = validPayload()
	payload["website"] = "filled"
	lead, err = NewValidator("fax").Parse(encode(t, payload))
	require.NoError(t, err)
	assert.Empty(t, lead.Honeypot)
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{}
	verr.add(FieldPhone, "a")
	verr.add(FieldEmail, "b")
	assert.Equal(t, "invalid lead: email: b; telephone: a", verr.Error())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+33645678910", normalizePhone("06 45 67 89 10", "FR"))
	assert.Equal(t, "", normalizePhone("not a phone", "FR"))
}
