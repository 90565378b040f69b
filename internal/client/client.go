// Package client submits workflow documents to the workflow service.
//
// A submission is a single POST to {base_url}/api/v1/workflows. There are
// no retries: the request either succeeds or the error is returned as a
// TransportError, ServiceError or ResponseFormatError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/logger"
	"github.com/deploymenttheory/go-workflow-composer/internal/urlutil"
)

const (
	// WorkflowsPath is the workflow creation endpoint, relative to the base URL
	WorkflowsPath = "/api/v1/workflows"

	// APIKeyHeader carries the service credential
	APIKeyHeader = "x-api-key"

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 1 << 20
)

// CreateResult is the service's answer to a successful submission
type CreateResult struct {
	WorkflowID string `json:"workflow_id"`
	CreatedAt  string `json:"created_at"`
}

// Client submits workflow documents
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

// New creates a client after validating cfg
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := urlutil.JoinURL(cfg.BaseURL, WorkflowsPath)
	if err != nil {
		return nil, err
	}

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc.Timeout = cfg.Timeout
	}
	hc.Transport = newLoggingTransport(hc.Transport, cfg.UserAgent)

	return &Client{cfg: cfg, endpoint: endpoint, httpClient: &hc}, nil
}

// Endpoint returns the URL documents are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// NewRequest builds the submission request for doc without sending it
func (c *Client) NewRequest(ctx context.Context, doc *definition.Document) (*http.Request, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding workflow document: %v", errors.ErrInvalidArgument, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.TransportError{Op: http.MethodPost, URL: c.endpoint, Cause: err}
	}
	req.Header.Set(APIKeyHeader, c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CreateWorkflow submits doc and returns the identifier the service assigned.
// Cancelling ctx aborts the request with a TransportError.
func (c *Client) CreateWorkflow(ctx context.Context, doc *definition.Document) (*CreateResult, error) {
	req, err := c.NewRequest(ctx, doc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errors.TransportError{Op: http.MethodPost, URL: c.endpoint, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &errors.TransportError{Op: "read response", URL: c.endpoint, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.ServiceError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	result, err := decodeResult(raw)
	if err != nil {
		return nil, err
	}

	logger.LogInfo("workflow created", map[string]interface{}{
		logger.FieldWorkflow:   doc.Title,
		logger.FieldWorkflowID: result.WorkflowID,
		logger.FieldDuration:   time.Since(start).Milliseconds(),
	})
	return result, nil
}

func decodeResult(raw []byte) (*CreateResult, error) {
	var result CreateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &errors.ResponseFormatError{
			Message: "response body is not a workflow creation result",
			Body:    string(raw),
			Cause:   err,
		}
	}

	var missing []string
	if strings.TrimSpace(result.WorkflowID) == "" {
		missing = append(missing, "workflow_id")
	}
	if strings.TrimSpace(result.CreatedAt) == "" {
		missing = append(missing, "created_at")
	}
	if len(missing) > 0 {
		return nil, &errors.ResponseFormatError{
			Message: fmt.Sprintf("response body is missing %s", strings.Join(missing, " and ")),
			Body:    string(raw),
		}
	}
	return &result, nil
}

// WorkflowURL returns the address of the workflow in the service UI
func WorkflowURL(uiURL, workflowID string) (string, error) {
	return urlutil.JoinURL(uiURL, "workflows", workflowID)
}
