package parser

import "strings"

// ParseUserAgent does a coarse OS/browser split of a User-Agent header. Good
// enough for request logs; clients report precise values via event metadata.
func ParseUserAgent(ua string) (os, browser string) {
	uaLower := strings.ToLower(ua)

	switch {
	case strings.Contains(uaLower, "windows"):
		os = "Windows"
	case strings.Contains(uaLower, "mac os"):
		os = "macOS"
	case strings.Contains(uaLower, "android"):
		os = "Android"
	case strings.Contains(uaLower, "iphone"), strings.Contains(uaLower, "ipad"):
		os = "iOS"
	case strings.Contains(uaLower, "linux"):
		os = "Linux"
	default:
		os = "Unknown"
	}

	switch {
	case strings.Contains(uaLower, "edge"):
		browser = "Edge"
	case strings.Contains(uaLower, "chrome"):
		browser = "Chrome"
	case strings.Contains(uaLower, "safari"):
		browser = "Safari"
	case strings.Contains(uaLower, "firefox"):
		browser = "Firefox"
	default:
		browser = "Unknown"
	}

	return os, browser
}
