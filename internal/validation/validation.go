// Package validation provides security validation for browser-open URLs and
// incoming request paths, preventing command injection and path traversal.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// urlBlocklist holds every character refused in a URL that will be handed to
// a system browser-open command. Shell metacharacters, quotes, backslashes,
// control characters, and spaces could all smuggle extra words past exec.
const urlBlocklist = ";&|`$()<>\"'\\\n\r "

// pathBlocklist holds the shell metacharacters refused in request paths.
const pathBlocklist = ";&|$`<>"

// ValidateURL checks a URL before it is passed to a system browser-open
// command. Only http and https schemes are accepted, the host must be
// non-empty, and none of the blocklisted characters may appear anywhere in
// the raw string.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Protocol handlers like javascript: or file: must never reach the
	// browser command.
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	// Scan the raw string, not the parsed form: parsing may decode or drop
	// exactly the bytes an injection relies on.
	if i := strings.IndexAny(rawURL, urlBlocklist); i >= 0 {
		return fmt.Errorf("URL contains dangerous character: %q", rawURL[i])
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateRequestPath validates a URL path from an incoming request before it
// is resolved against the served root. It rejects traversal sequences and
// characters with no business in a file name, so handlers can refuse early
// without touching the file system. Canonical root confinement still happens
// at resolution time; this is the string-level gate in front of it.
func ValidateRequestPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Checked on the raw request, before any cleaning could fold a crafted
	// sequence away.
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	// Some routers pass null bytes through.
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null byte")
	}

	if i := strings.IndexAny(path, pathBlocklist); i >= 0 {
		return fmt.Errorf("path contains dangerous character: %q", path[i])
	}

	return nil
}
