package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

// DefaultAPIKeyHeader carries the API key on every request.
const DefaultAPIKeyHeader = "x-api-key"

const (
	defaultTimeout   = 15 * time.Second
	maxErrorBodySize = 4 << 10
)

const responseSchema = `{
	"type": "object",
	"required": ["response"],
	"properties": {"response": {"type": "string"}}
}`

// HTTPConfig configures the HTTP assistant client. APIKey is read from server-side
// configuration and never reaches the page.
type HTTPConfig struct {
	Endpoint     string
	APIKey       string
	APIKeyHeader string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// HTTPClient forwards prompts to the remote assistant endpoint.
type HTTPClient struct {
	endpoint string
	apiKey   string
	header   string
	client   *http.Client
	schema   *jsonschema.Schema
}

var _ dashboard.Assistant = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the configured endpoint.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("assistant: endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	schema, err := compileResponseSchema()
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		header:   header,
		client:   httpClient,
		schema:   schema,
	}, nil
}

func compileResponseSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("assistant-response.json", strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("assistant: load response schema: %w", err)
	}
	schema, err := compiler.Compile("assistant-response.json")
	if err != nil {
		return nil, fmt.Errorf("assistant: compile response schema: %w", err)
	}
	return schema, nil
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

// Ask posts the prompt and returns the `response` field of the reply. Errors wrap
// dashboard.ErrAssistantTransport, ErrAssistantStatus or ErrAssistantMalformed.
func (c *HTTPClient) Ask(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(askRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("assistant: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", dashboard.ErrAssistantTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.header, c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", dashboard.ErrAssistantTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return c.decode(resp.Body)
}

func (c *HTTPClient) decode(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", dashboard.ErrAssistantTransport, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", dashboard.ErrAssistantMalformed, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return "", fmt.Errorf("%w: %v", dashboard.ErrAssistantMalformed, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: response is not an object", dashboard.ErrAssistantMalformed)
	}
	reply, ok := obj["response"].(string)
	if !ok {
		return "", fmt.Errorf("%w: response is not a string", dashboard.ErrAssistantMalformed)
	}
	return reply, nil
}

// StatusError is returned for non-2xx answers. It matches dashboard.ErrAssistantStatus.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("assistant: remote error %d", e.Code)
	}
	return fmt.Sprintf("assistant: remote error %d: %s", e.Code, e.Body)
}

// Is reports whether target is dashboard.ErrAssistantStatus.
func (e *StatusError) Is(target error) bool {
	return target == dashboard.ErrAssistantStatus
}

// IsStatus reports whether err came from a non-2xx answer with the given code.
func IsStatus(err error, code int) bool {
	var status *StatusError
	return errors.As(err, &status) && status.Code == code
}
