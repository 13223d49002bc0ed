// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentari

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Endpoint paths relative to BaseURL.
const (
	ChatPagePath     = "/ai/chat/"
	ChatAPIPath      = "/ai/chat/api/"
	RandomAppearPath = "/mentari/random_appearance"
	CSRFHeader       = "X-CSRFToken"
	maxResponseBytes = 4 << 20
	defaultBaseURL   = "http://127.0.0.1:8000"
	defaultUserAgent = "mentari-cli"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Mentari client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeStatus
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeStatus:
		return "status"
	default:
		return "unknown"
	}
}

// ErrTimeout is returned when a request exceeds its deadline.
var ErrTimeout = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Mentari client.
type ClientConfig struct {
	// BaseURL is the service root (default: http://127.0.0.1:8000)
	BaseURL string

	// Context is sent with every chat message (default: DefaultContext)
	Context string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// Cookies seeds the jar, in document.cookie form ("csrftoken=..; sessionid=..")
	Cookies string

	// UserAgent header value
	UserAgent string

	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   defaultBaseURL,
		Context:   DefaultContext,
		UserAgent: defaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Mentari chat service. It keeps a cookie jar so the
// session and CSRF cookies set by the service flow into later requests.
//
// The Client is safe for concurrent use. It never retries.
type Client struct {
	config     *ClientConfig
	base       *url.URL
	jar        http.CookieJar
	httpClient *http.Client
}

// NewClient creates a client with the default configuration.
func NewClient() (*Client, error) {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with a custom configuration.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Context == "" {
		cfg.Context = DefaultContext
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "invalid base URL", Cause: err}
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, &ClientError{Type: ErrTypeConnection, Message: fmt.Sprintf("unsupported URL scheme %q", base.Scheme)}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create cookie jar", Cause: err}
	}
	if seeded := ParseCookieString(cfg.Cookies); len(seeded) > 0 {
		jar.SetCookies(base, seeded)
	}

	return &Client{
		config: &cfg,
		base:   base,
		jar:    jar,
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
	}, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// BaseURL returns the parsed service root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Resolve turns a path returned by the service (for example a redirect_url)
// into an absolute URL. Absolute inputs are returned unchanged.
func (c *Client) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// CSRFToken returns the decoded csrftoken cookie, or "" when none is held.
func (c *Client) CSRFToken() string {
	token, _ := LookupCookie(c.jar.Cookies(c.base), CSRFCookieName)
	return token
}

// =============================================================================
// CHAT
// =============================================================================

// Prime loads the chat page so the service can set its session and CSRF
// cookies. The page body is discarded.
func (c *Client) Prime(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, ChatPagePath, nil, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 400 {
		return &ClientError{Type: ErrTypeStatus, Message: "unexpected status from chat page: " + resp.Status}
	}
	return nil
}

// Chat sends one message and decodes the reply.
//
// A reply with a non-2xx status but a decodable JSON body is returned
// without error; the service reports failures in-band. Only transport
// failures and undecodable bodies are errors.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{Message: message, Context: c.config.Context})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, ChatAPIPath, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(CSRFHeader, c.CSRFToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	var out ChatResponse
	if err := decodeObject(resp.Body, &out); err != nil {
		return nil, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("failed to decode chat reply (status %d)", resp.StatusCode),
			Cause:   err,
		}
	}
	out.StatusCode = resp.StatusCode
	return &out, nil
}

// RandomAppearance fetches a short reflection notice for a character.
func (c *Client) RandomAppearance(ctx context.Context, characterName, action string) (*Appearance, error) {
	query := url.Values{}
	query.Set("character_name", characterName)
	query.Set("action", action)

	req, err := c.newRequest(ctx, http.MethodGet, RandomAppearPath, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{Type: ErrTypeStatus, Message: "unexpected status from random_appearance: " + resp.Status}
	}

	var out Appearance
	if err := decodeObject(resp.Body, &out); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode appearance", Cause: err}
	}
	return &out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	// JoinPath drops the trailing slash the service routes depend on.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	return req, nil
}

// decodeObject requires the body to be a single JSON object.
func decodeObject(r io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("body is not a JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
}

// IsTimeout reports whether err is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return false
}

// IsInvalidResponse reports whether err is a decode failure.
func IsInvalidResponse(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeInvalidResponse
	}
	return false
}

// drainAndClose drains and closes a response body so the connection can be
// reused.
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxResponseBytes))
	_ = r.Close()
}
