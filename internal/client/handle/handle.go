// Package handle implements the public handle rules: normalization, format
// validation and the reserved-name policy.
package handle

import (
	"regexp"
	"strings"
)

// MaxLen is the longest handle allowed.
const MaxLen = 20

var (
	disallowed   = regexp.MustCompile(`[^a-z0-9_]`)
	nonAlnum     = regexp.MustCompile(`[^a-zA-Z0-9]`)
	validPattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)
)

var reserved = map[string]struct{}{
	"admin":      {},
	"support":    {},
	"root":       {},
	"mapfriends": {},
	"official":   {},
	"api":        {},
	"help":       {},
	"security":   {},
	"billing":    {},
	"about":      {},
	"terms":      {},
	"privacy":    {},
}

var reservedPrefixes = []string{"admin", "support"}

// Normalize lower-cases s, drops every character outside [a-z0-9_] and
// truncates to MaxLen. It is idempotent.
func Normalize(s string) string {
	return truncate(disallowed.ReplaceAllString(strings.ToLower(s), ""))
}

// Sanitized is the result of Sanitize.
type Sanitized struct {
	Handle             string
	RemovedUnsupported bool
}

// Sanitize normalizes user input and reports whether characters were dropped.
// Truncation alone does not count as removal.
func Sanitize(s string) Sanitized {
	lower := strings.ToLower(s)
	stripped := disallowed.ReplaceAllString(lower, "")
	return Sanitized{
		Handle:             truncate(stripped),
		RemovedUnsupported: stripped != lower,
	}
}

// IsValidFormat reports whether h is 3 to 20 characters of [a-z0-9_].
func IsValidFormat(h string) bool {
	return validPattern.MatchString(h)
}

// IsReserved reports whether the normalized form of h is a reserved name or
// starts with a reserved prefix.
func IsReserved(h string) bool {
	n := Normalize(h)
	if n == "" {
		return false
	}
	if _, ok := reserved[n]; ok {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(n, p) {
			return true
		}
	}
	return false
}

// Fallback derives a placeholder handle from a user id: "user_" followed by
// the last four alphanumerics of id, lower-cased, or "0001" when id has none.
func Fallback(id string) string {
	alnum := nonAlnum.ReplaceAllString(id, "")
	if len(alnum) > 4 {
		alnum = alnum[len(alnum)-4:]
	}
	suffix := strings.ToLower(alnum)
	if suffix == "" {
		suffix = "0001"
	}
	return truncate("user_" + suffix)
}

// truncate operates on bytes; callers only pass ASCII.
func truncate(s string) string {
	if len(s) > MaxLen {
		return s[:MaxLen]
	}
	return s
}
