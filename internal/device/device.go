// Package device derives human-readable display names from User-Agent strings
// so audit entries show "Chrome on Mac OS X" instead of raw header noise.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a short "<browser> on <platform>" display name.
// Unknown agents still produce a formatted string so history rows stay uniform.
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown Device"
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := parsed.OSInfo().Name
	if platform == "" {
		platform = parsed.Platform()
	}
	if platform == "" {
		platform = "Unknown Platform"
	}

	return browser + " on " + platform
}
