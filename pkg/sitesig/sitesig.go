package sitesig

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidSiteURL = errors.New("invalid site URL")

// Compute derives the site signature from a site URL and the product's
// install path. The URL is normalized first so that scheme, port, trailing
// slashes, and host case do not produce distinct signatures for the same
// install. Returns a 32-character hex string.
func Compute(siteURL, installPath string) (string, error) {
	domain, path, err := normalize(siteURL)
	if err != nil {
		return "", err
	}

	components := []string{domain, path, strings.TrimSpace(installPath)}
	var filtered []string
	for _, c := range components {
		if c != "" {
			filtered = append(filtered, c)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(filtered, "|")))
	return hex.EncodeToString(sum[:16]), nil
}

// normalize extracts a canonical (domain, path) pair from a raw site URL.
// Accepts bare hostnames without a scheme.
func normalize(raw string) (domain, path string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidSiteURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", "", ErrInvalidSiteURL
	}

	domain = strings.ToLower(u.Hostname())
	domain = strings.TrimPrefix(domain, "www.")

	path = strings.TrimRight(u.Path, "/")

	return domain, path, nil
}
