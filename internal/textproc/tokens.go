package textproc

import (
	"strings"
	"unicode/utf8"
)

// Analyzer splits normalized text into feature terms
type Analyzer struct {
	StopWords   StopWords
	MinTokenLen int
	MinN        int
	MaxN        int
}

// DefaultAnalyzer extracts unigrams and bigrams of tokens at least two
// characters long, skipping English stop words.
func DefaultAnalyzer() *Analyzer {
	return &Analyzer{
		StopWords:   EnglishStopWords,
		MinTokenLen: 2,
		MinN:        1,
		MaxN:        2,
	}
}

// Tokens returns the filtered whitespace tokens of normalized text
func (a *Analyzer) Tokens(text string) []string {
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < a.MinTokenLen {
			continue
		}
		if a.StopWords != nil && a.StopWords.IsStop(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Terms returns the n-grams of the filtered tokens. Stop words are dropped
// before n-grams are formed, so a bigram may span a removed stop word.
func (a *Analyzer) Terms(text string) []string {
	tokens := a.Tokens(text)
	if a.MaxN <= 1 {
		return tokens
	}

	minN := a.MinN
	if minN < 1 {
		minN = 1
	}
	terms := make([]string, 0, len(tokens)*(a.MaxN-minN+1))
	for n := minN; n <= a.MaxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
