package validate

import (
	"regexp"
	"strings"
)

var (
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9._@+-]{1,150}$`)
)

// ID validates a resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Username validates a login name.
func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reUsername.MatchString(s)
}

// Password enforces the bcrypt input window.
func Password(s string) bool {
	return len(s) >= 4 && len(s) <= 72
}

// ProductName validates a displayable product name.
func ProductName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Category validates a category label. The enumeration is open (Home, Away,
// Third, ...), so only shape is checked.
func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return "", false
	}
	return s, true
}

// Description caps free-text fields at a sane length.
func Description(s string) (string, bool) {
	if len(s) > 2000 {
		return "", false
	}
	return s, true
}

// ImageURL does a light sanity check; an empty URL is allowed.
func ImageURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 500 {
		return "", false
	}
	return s, strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
