// Package textproc prepares raw mail text for feature extraction.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentinel tokens substituted for variable patterns. They stay uppercase so
// they never collide with lowercased words.
const (
	TokenURL    = "URL"
	TokenEmail  = "EMAIL"
	TokenNumber = "NUMBER"
)

var (
	wordRunPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	urlPattern     = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$-_@.&+!*\\(),]|%[0-9a-fA-F]{2})+`)
	emailPattern   = regexp.MustCompile(`[^\s\p{Z}]+@[^\s\p{Z}]+`)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

func isSentinel(word string) bool {
	return word == TokenURL || word == TokenEmail || word == TokenNumber
}

func isDigits(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return word != ""
}

// Normalize lowercases text, strips markup and folds URLs, addresses and
// integers into sentinel tokens. The result holds only word characters
// separated by single spaces, so Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// A Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und)
	text = wordRunPattern.ReplaceAllStringFunc(text, func(word string) string {
		if isSentinel(word) {
			return word
		}
		return lower.String(word)
	})

	// Tags become a space so a sentinel can never be glued to a neighbour.
	text = tagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " "+TokenURL+" ")
	text = emailPattern.ReplaceAllString(text, " "+TokenEmail+" ")
	text = wordRunPattern.ReplaceAllStringFunc(text, func(word string) string {
		if isDigits(word) {
			return " " + TokenNumber + " "
		}
		return word
	})
	text = nonWordPattern.ReplaceAllString(text, " ")

	return strings.Join(strings.Fields(text), " ")
}
