package domain

import (
	"fmt"
	"time"
)

// MaxDomainLength is the longest hostname DNS allows.
const MaxDomainLength = 253

// Project is a tenant: it owns one custom domain and the links stored under it.
// Slug is stable; Domain may be renamed but is unique across all projects.
type Project struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Migration marks a domain rename that has started but not yet been
// confirmed on every store. A repair pass completes or reverts it.
// Token identifies the current holder of the marker: the rename that wrote
// it, or the repair that took it over.
type Migration struct {
	Slug      string    `json:"slug"`
	OldDomain string    `json:"old_domain"`
	NewDomain string    `json:"new_domain"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"started_at"`
}

// ValidateDomain checks the domain charset: letters, digits, hyphen and dot.
// Matching is exact; no case folding or trimming is applied.
func ValidateDomain(d string) error {
	if d == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidDomain)
	}
	if len(d) > MaxDomainLength {
		return fmt.Errorf("%w: domain must be at most %d characters", ErrInvalidDomain, MaxDomainLength)
	}
	for i := 0; i < len(d); i++ {
		if !isDomainChar(d[i]) {
			return fmt.Errorf("%w: %q may only contain letters, digits, hyphens and dots", ErrInvalidDomain, d)
		}
	}
	return nil
}

// IsValidDomain reports whether ValidateDomain accepts d.
func IsValidDomain(d string) bool {
	return ValidateDomain(d) == nil
}

// ValidateSlug checks a project slug: lowercase letters, digits and hyphens.
func ValidateSlug(s string) error {
	if s == "" || len(s) > 64 {
		return fmt.Errorf("%w: slug must be 1-64 characters", ErrInvalidSlug)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return fmt.Errorf("%w: %q may only contain lowercase letters, digits and hyphens", ErrInvalidSlug, s)
		}
	}
	return nil
}

func isDomainChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '.'
}
