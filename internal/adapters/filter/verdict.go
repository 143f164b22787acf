// Package filter connects the classifier to mail transfer agents.
package filter

import (
	"fmt"
	"mime"
	"strings"

	"github.com/mikey/mailguard/internal/core"
)

const defaultSubjectPrefix = "[**SPAM**] "

// Options controls how a filter marks or rejects classified mail
type Options struct {
	BlockSpam      bool
	SpamHeader     string
	ScoreHeader    string
	ThreatHeader   string
	KeywordsHeader string
	SubjectPrefix  string
	ModifySubject  bool
}

// DefaultOptions returns the header names used when none are configured
func DefaultOptions() Options {
	return Options{
		SpamHeader:     "X-Spam-Status",
		ScoreHeader:    "X-Spam-Score",
		ThreatHeader:   "X-Spam-Threat",
		KeywordsHeader: "X-Spam-Keywords",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SpamHeader == "" {
		o.SpamHeader = d.SpamHeader
	}
	if o.ScoreHeader == "" {
		o.ScoreHeader = d.ScoreHeader
	}
	if o.ThreatHeader == "" {
		o.ThreatHeader = d.ThreatHeader
	}
	if o.KeywordsHeader == "" {
		o.KeywordsHeader = d.KeywordsHeader
	}
	if o.SubjectPrefix == "" && o.ModifySubject {
		o.SubjectPrefix = defaultSubjectPrefix
	}
	return o
}

type header struct {
	name  string
	value string
}

// verdictHeaders renders a classification as header fields, in order
func (o Options) verdictHeaders(result *core.ClassificationResult) []header {
	status := "No"
	if result.IsSpam() {
		status = "Yes"
	}
	headers := []header{
		{o.SpamHeader, fmt.Sprintf("%s, probability=%.3f, confidence=%.3f", status, result.SpamProbability, result.Confidence)},
		{o.ScoreHeader, fmt.Sprintf("%.4f", result.SpamProbability)},
		{o.ThreatHeader, string(result.ThreatLevel)},
	}
	if len(result.Keywords) > 0 {
		headers = append(headers, header{o.KeywordsHeader, strings.Join(result.Keywords, ", ")})
	}
	return headers
}

// shouldReject reports whether the message is refused outright
func (o Options) shouldReject(result *core.ClassificationResult) bool {
	return o.BlockSpam && result.IsSpam()
}

// rewriteSubject returns the prefixed subject and whether it changed
func (o Options) rewriteSubject(result *core.ClassificationResult, subject string) (string, bool) {
	if !o.ModifySubject || o.SubjectPrefix == "" || !result.IsSpam() {
		return subject, false
	}
	if strings.HasPrefix(subject, o.SubjectPrefix) {
		return subject, false
	}
	return o.SubjectPrefix + subject, true
}

func rejectMessage(result *core.ClassificationResult) string {
	return fmt.Sprintf("5.7.1 Rejected as spam (probability: %.2f)", result.SpamProbability)
}

// sanitizeHeaderValue keeps a value on a single header line
func sanitizeHeaderValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// mime2047 encodes a header value only when it is not plain ASCII
func mime2047(v string) string {
	return mime.QEncoding.Encode("utf-8", sanitizeHeaderValue(v))
}
