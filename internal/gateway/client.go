package gateway

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

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

const errorBodyReadLimit int64 = 4096

var errBaseURLRequired = errors.New("api base url is required")

// TokenSource supplies the bearer token for authenticated calls. The session
// store satisfies it.
type TokenSource interface {
	Token() string
}

// Client is the typed REST surface over the Coffee Club API. Every method is
// a pure request function: no local state, full server payloads back.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the API client from config. tokens may be nil for a
// client that only performs unauthenticated calls.
func NewClient(cfg config.APIConfig, tokens TokenSource, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// do executes one request. Authenticated calls read the bearer token live
// from the token source; a missing token fails fast before any I/O. Non-2xx
// responses are mapped into the closed error taxonomy with the server's
// message preserved when the body carries one.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s %s request", method, path))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s %s request", method, path))
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		token := ""
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return pkgerrors.New(pkgerrors.CodePrecondition, "active session required")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapErrorResponse(resp, method, path)
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeServer, err, fmt.Sprintf("decode %s %s response", method, path))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeServer, err, fmt.Sprintf("decode %s %s payload", method, path))
	}
	return nil
}

func (c *Client) mapErrorResponse(resp *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	message := ""
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		// Some upstreams answer {"message": "..."} without the envelope.
		var flat struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &flat); err == nil {
			message = flat.Message
		}
	}

	code := pkgerrors.CodeFromStatus(resp.StatusCode)
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}

	return pkgerrors.Wrap(code,
		fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode),
		message)
}
