package scoring

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/octobees/desamiantage-leads/internal/service/antispam"
)

const (
	categoryPhone       = "phone"
	categoryPostalCode  = "postal_code"
	categoryDescription = "description"
	categoryContent     = "content_penalty"

	detailedDescriptionRunes = 50
)

// knownPostalCodes restricts the postal-code bonus for a handful of metros: when the
// lead names one of these cities, the code must belong to it. Other cities only need
// a plausible code.
var knownPostalCodes = map[string][]string{
	"paris":     append(districts("750", 1, 20), "75116"),
	"lyon":      districts("6900", 1, 9),
	"marseille": districts("130", 1, 16),
	"toulouse":  {"31000", "31100", "31200", "31300", "31400", "31500"},
	"nice":      {"06000", "06100", "06200", "06300"},
	"bordeaux":  {"33000", "33100", "33200", "33300", "33800"},
	"lille":     {"59000", "59160", "59260", "59777", "59800"},
	"nantes":    {"44000", "44100", "44200", "44300"},
}

// LeadFeatures captures the lead fields used for scoring.
type LeadFeatures struct {
	Name        string
	Phone       string
	PostalCode  string
	City        string
	Description string
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// ComputeScore evaluates the provided features. The total is not clamped and
// may be negative.
func ComputeScore(input LeadFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryPhone:       scorePhone(input.Phone),
		categoryPostalCode:  scorePostalCode(input.PostalCode, input.City),
		categoryDescription: scoreDescription(input.Description),
		categoryContent:     scoreContent(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

// ScoreLead returns only the total of ComputeScore.
func ScoreLead(input LeadFeatures) int {
	return ComputeScore(input).Total
}

func scorePhone(phone string) int {
	digits := countDigits(phone)
	if digits >= 10 && digits <= 15 {
		return 2
	}
	return 0
}

func scorePostalCode(code, city string) int {
	code = strings.TrimSpace(code)
	if !isPostalCode(code) || isRepeatedDigit(code) {
		return 0
	}
	if allowed, ok := knownPostalCodes[normalizeCity(city)]; ok {
		for _, candidate := range allowed {
			if candidate == code {
				return 1
			}
		}
		return 0
	}
	return 1
}

func scoreDescription(description string) int {
	if utf8.RuneCountInString(strings.TrimSpace(description)) >= detailedDescriptionRunes {
		return 1
	}
	return 0
}

func scoreContent(input LeadFeatures) int {
	if antispam.AnyBanned(input.Name, input.Description, input.City) {
		return -2
	}
	return 0
}

func countDigits(value string) int {
	count := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func isPostalCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func isRepeatedDigit(code string) bool {
	return strings.Count(code, code[:1]) == len(code)
}

func normalizeCity(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, city)
}

func districts(prefix string, from, to int) []string {
	width := 5 - len(prefix)
	codes := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		codes = append(codes, fmt.Sprintf("%s%0*d", prefix, width, i))
	}
	return codes
}
