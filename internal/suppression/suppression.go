package suppression

import (
	"strings"

	"go.uber.org/zap"
)

// Reason values returned by Checker.Check
const (
	ReasonNone      = ""
	ReasonInvalid   = "invalid address"
	ReasonSelf      = "own address"
	ReasonDomain    = "suppressed domain"
	ReasonLocalPart = "automated sender"
)

// Checker decides whether an email address may be imported as a contact
type Checker struct {
	domains    []string
	localParts []string
	self       map[string]struct{}
	logger     *zap.Logger
}

// NewChecker creates a new suppression checker
func NewChecker(domains, localParts, self []string, logger *zap.Logger) *Checker {
	// Normalize domains and local parts (lowercase)
	normalizedDomains := normalize(domains)
	normalizedLocalParts := normalize(localParts)

	selfSet := make(map[string]struct{}, len(self))
	for _, addr := range normalize(self) {
		selfSet[addr] = struct{}{}
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized suppression checker",
			zap.Strings("domains", normalizedDomains),
			zap.Int("self_addresses", len(selfSet)))
	}

	return &Checker{
		domains:    normalizedDomains,
		localParts: normalizedLocalParts,
		self:       selfSet,
		logger:     logger,
	}
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsSuppressed reports whether the address must not be imported
func (c *Checker) IsSuppressed(email string) bool {
	return c.Check(email) != ReasonNone
}

// Check returns the reason an address is suppressed, or ReasonNone
func (c *Checker) Check(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	// Extract local part and domain from email address
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ReasonInvalid
	}
	local, domain := parts[0], parts[1]

	if _, ok := c.self[email]; ok {
		return ReasonSelf
	}

	for _, suppressed := range c.domains {
		// Subdomains of a suppressed domain are suppressed too
		if domain == suppressed || strings.HasSuffix(domain, "."+suppressed) {
			if c.logger != nil {
				c.logger.Debug("Domain is suppressed",
					zap.String("domain", domain),
					zap.String("email", email))
			}
			return ReasonDomain
		}
	}

	// "noreply" also catches "noreply+abc" and "noreply-billing"
	for _, prefix := range c.localParts {
		if local == prefix || strings.HasPrefix(local, prefix+"+") || strings.HasPrefix(local, prefix+"-") || strings.HasPrefix(local, prefix+".") {
			return ReasonLocalPart
		}
	}

	return ReasonNone
}
