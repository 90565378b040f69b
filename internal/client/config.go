package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/urlutil"
)

// Config holds submission client settings
type Config struct {
	// BaseURL of the workflow service, e.g. http://localhost:8000
	BaseURL string

	// APIKey is sent as the x-api-key header
	APIKey string

	// Timeout bounds the whole request, response body included
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string

	// HTTPClient overrides the transport; its Timeout is left untouched
	HTTPClient *http.Client
}

// DefaultConfig returns the local-service defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8000",
		Timeout:   30 * time.Second,
		UserAgent: "go-workflow-composer",
	}
}

// Validate checks the configuration before any request is made
func (c Config) Validate() error {
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base URL: %w", err)
	}
	if c.APIKey == "" {
		return errors.ErrAPIKeyMissing
	}
	if c.HTTPClient == nil && c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", errors.ErrInvalidArgument, c.Timeout)
	}
	return nil
}
