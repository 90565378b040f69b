package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-workflow-composer/internal/definition"
	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
)

func testDocument(t *testing.T) *definition.Document {
	t.Helper()
	doc, err := definition.NewBuilder("Wait", "pause once").
		Parameter("delay", "seconds", "3").
		Block(&definition.WaitBlock{
			BlockMeta: definition.BlockMeta{Name: "pause"},
			Data:      definition.WaitData{WaitSeconds: definition.Ref("delay")},
		}).
		Build()
	require.NoError(t, err)
	return doc
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"
	cfg.UserAgent = "go-workflow-composer/test"

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestCreateWorkflow_Success(t *testing.T) {
	var (
		gotHeaders http.Header
		gotBody    map[string]interface{}
		gotPath    string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workflow_id":"wf_123","created_at":"2024-01-01T00:00:00Z"}`))
	})

	result, err := c.CreateWorkflow(context.Background(), testDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "wf_123", result.WorkflowID)
	assert.Equal(t, "2024-01-01T00:00:00Z", result.CreatedAt)

	assert.Equal(t, WorkflowsPath, gotPath)
	assert.Equal(t, "test-key", gotHeaders.Get(APIKeyHeader))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "go-workflow-composer/test", gotHeaders.Get("User-Agent"))
	assert.NotEmpty(t, gotHeaders.Get(RequestIDHeader))

	assert.Equal(t, "Wait", gotBody["title"])
	assert.Len(t, gotBody["parameters"], 1)
	assert.Len(t, gotBody["blocks"], 1)
}

func TestCreateWorkflow_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := c.CreateWorkflow(context.Background(), testDocument(t))
	require.Error(t, err)

	var serviceErr *errors.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusInternalServerError, serviceErr.StatusCode)
	assert.Equal(t, `{"error":"boom"}`, serviceErr.Body)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestCreateWorkflow_ResponseFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "not json", body: "<html>ok</html>", want: "not a workflow creation result"},
		{name: "missing id", body: `{"created_at":"2024-01-01T00:00:00Z"}`, want: "missing workflow_id"},
		{name: "missing both", body: `{}`, want: "missing workflow_id and created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateWorkflow(context.Background(), testDocument(t))
			assert.Equal(t, "ResponseFormatError", errors.Kind(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCreateWorkflow_NonOKSuccessIsServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"workflow_id":"wf_1","created_at":"now"}`))
	})

	_, err := c.CreateWorkflow(context.Background(), testDocument(t))
	assert.Equal(t, "ServiceError", errors.Kind(err))
}

func TestCreateWorkflow_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = "k"
	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.CreateWorkflow(context.Background(), testDocument(t))
	assert.Equal(t, "TransportError", errors.Kind(err))
}

func TestCreateWorkflow_Cancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateWorkflow(ctx, testDocument(t))
	assert.Equal(t, "TransportError", errors.Kind(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "bad base url", mutate: func(c *Config) { c.BaseURL = "localhost" }, want: errors.ErrInvalidURL},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, want: errors.ErrAPIKeyMissing},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, want: errors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.APIKey = "k"
			tt.mutate(&cfg)

			c, err := New(cfg)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestWorkflowURL(t *testing.T) {
	got, err := WorkflowURL("http://localhost:8080", "wf_123")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/workflows/wf_123", got)
}
