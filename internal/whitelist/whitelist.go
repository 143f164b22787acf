package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain bypasses classification.
// An entry like "example.com" matches only that domain; "*.example.com"
// also matches its subdomains.
type Checker struct {
	domains  map[string]bool
	suffixes []string
	logger   *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	c := &Checker{
		domains: make(map[string]bool),
		logger:  logger,
	}

	var normalized []string
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		normalized = append(normalized, d)
		if rest, ok := strings.CutPrefix(d, "*."); ok {
			c.domains[rest] = true
			c.suffixes = append(c.suffixes, "."+rest)
			continue
		}
		c.domains[d] = true
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized whitelist checker", zap.Strings("domains", normalized))
	}
	return c
}

// Len returns the number of configured entries
func (c *Checker) Len() int {
	return len(c.domains)
}

// IsWhitelisted checks if the sender's domain is in the whitelist. from may
// be a bare address or a full "Name <addr>" header value.
func (c *Checker) IsWhitelisted(from string) bool {
	if c == nil || len(c.domains) == 0 {
		return false
	}

	domain := Domain(from)
	if domain == "" {
		return false
	}

	matched := c.domains[domain]
	for _, suffix := range c.suffixes {
		if matched {
			break
		}
		matched = strings.HasSuffix(domain, suffix)
	}

	if matched && c.logger != nil {
		c.logger.Debug("Domain is whitelisted",
			zap.String("domain", domain),
			zap.String("email", from))
	}
	return matched
}

// Domain returns the lowercased domain of an address, or "" if there is none
func Domain(from string) string {
	addr := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}
	addr = strings.Trim(addr, "<>")

	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}
