package antispam

import "strings"

// bannedTokens are matched as case-insensitive substrings. Legitimate text that
// happens to contain one of them is rejected too; the list stays short for that reason.
var bannedTokens = []string{
	"viagra",
	"cialis",
	"casino",
	"poker",
	"porn",
	"xxx",
	"escort",
	"bitcoin",
	"crypto",
	"forex",
	"payday",
	"loan",
	"pret rapide",
	"prêt rapide",
	"backlink",
	"seo service",
}

// ContainsBannedWord reports whether text contains any banned token.
func ContainsBannedWord(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, token := range bannedTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// AnyBanned reports whether at least one of the texts contains a banned token.
func AnyBanned(texts ...string) bool {
	for _, text := range texts {
		if ContainsBannedWord(text) {
			return true
		}
	}
	return false
}
