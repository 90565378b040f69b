package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
	"github.com/deploymenttheory/go-workflow-composer/internal/urlutil"
)

// RequestIDHeader carries a per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// loggingTransport sets the User-Agent and request ID headers and logs
// each request with its outcome and duration.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
}

func newLoggingTransport(base http.RoundTripper, userAgent string) *loggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base, userAgent: userAgent}
}

// RoundTrip implements http.RoundTripper
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := t.base.RoundTrip(req)

	fields := map[string]interface{}{
		"method":              req.Method,
		logger.FieldURL:       urlutil.Redact(req.URL.String()),
		logger.FieldRequestID: req.Header.Get(RequestIDHeader),
		logger.FieldDuration:  time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.LogWarn("http request failed", fields)
		return nil, err
	}

	fields[logger.FieldStatusCode] = resp.StatusCode
	if resp.StatusCode >= 400 {
		logger.LogWarn("http request", fields)
	} else {
		logger.LogDebug("http request", fields)
	}
	return resp, nil
}
