package rdf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateIRI checks that iri is a well-formed IRI reference.
// Relative references are accepted; use ValidateAbsoluteIRI when a scheme
// is required.
func ValidateIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	for i, r := range iri {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("invalid control character at position %d in IRI: %q", i, iri)
		}
		switch r {
		case ' ', '<', '>', '"', '{', '}', '|', '\\', '^', '`':
			return fmt.Errorf("invalid character '%c' at position %d in IRI (should be percent-encoded): %s", r, i, iri)
		}
	}
	if _, err := url.Parse(iri); err != nil {
		return fmt.Errorf("invalid IRI syntax: %w", err)
	}
	if strings.HasPrefix(iri, "//") {
		return fmt.Errorf("relative IRI without scheme: %s", iri)
	}
	return nil
}

// ValidateAbsoluteIRI checks that iri is well-formed and carries a scheme.
func ValidateAbsoluteIRI(iri string) error {
	if err := ValidateIRI(iri); err != nil {
		return err
	}
	scheme, _, ok := strings.Cut(iri, ":")
	if !ok || !validScheme(scheme) {
		return fmt.Errorf("IRI is not absolute: %s", iri)
	}
	return nil
}

// validScheme implements the RFC 3986 scheme production:
// ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
func validScheme(scheme string) bool {
	if scheme == "" {
		return false
	}
	first := scheme[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return false
	}
	for _, r := range scheme[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// StripFragment returns iri without its fragment ("#..." suffix).
func StripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}
