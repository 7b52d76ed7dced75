package cmd

import (
	"fmt"
	"strings"
)

// ParseCookieFlags joins --cookie values into one Cookie header value.
// Input ["session=abc", "user=xyz"] gives "session=abc; user=xyz". No flags
// gives "". A value without '=' is rejected.
func ParseCookieFlags(flags []string) (string, error) {
	var cookies []string
	for _, flag := range flags {
		trimmed := strings.TrimSpace(flag)
		if trimmed == "" || !strings.Contains(trimmed, "=") {
			return "", fmt.Errorf("invalid cookie format: %q (expected 'name=value')", flag)
		}
		cookies = append(cookies, trimmed)
	}
	return strings.Join(cookies, "; "), nil
}
