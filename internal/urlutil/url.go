package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

// ValidateURL checks that rawURL is an absolute http or https URL
func ValidateURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidURL, err.Error())
	}

	// Check scheme
	if parsedURL.Scheme == "" {
		return fmt.Errorf("%w: %q is missing a scheme (http:// or https://)", errors.ErrInvalidURL, rawURL)
	}

	// Only allow HTTP and HTTPS
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme '%s'", errors.ErrInvalidURL, parsedURL.Scheme)
	}

	// Check host
	if parsedURL.Host == "" {
		return fmt.Errorf("%w: %q is missing a host", errors.ErrInvalidURL, rawURL)
	}

	return nil
}

// JoinURL joins a base URL and path segments
func JoinURL(baseURL string, paths ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidURL, err.Error())
	}

	p := path.Join(paths...)

	// Keep any path prefix the base URL carries
	if u.Path != "" && u.Path != "/" {
		p = path.Join(strings.TrimSuffix(u.Path, "/"), p)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	u.Path = p
	u.RawPath = ""

	return u.String(), nil
}

// Redact returns rawURL with any userinfo and query string removed
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
