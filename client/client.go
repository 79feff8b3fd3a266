// Package client provides an HTTP client for the script debugger API.
//
// Every operation returns the decoded payload on success. Failures carrying a
// known fault document are returned as *fault.Error; any other failed
// response is returned as *fault.TransportError. Network errors are returned
// wrapped, so errors.Is and errors.As still reach them.
//
// A Client holds only immutable configuration and is safe for concurrent
// use. It performs no retries, sets no timeout of its own and imposes no
// ordering: callers must call CreateClient before any other operation, and
// bound calls with their context or WithTimeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaot623/gogo/sdapi/fault"
)

const (
	// BasePath is the path prefix of the debugger API.
	BasePath = "/s/-/dw/debugger/v2_0"
	// ClientIDHeader identifies the calling debugger client.
	ClientIDHeader = "x-dw-client-id"
)

// Config holds the connection settings. All fields are required.
type Config struct {
	Hostname string
	Username string
	Password string
	ClientID string
}

func (c Config) validate() error {
	var missing []string
	if c.Hostname == "" {
		missing = append(missing, "hostname")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("client config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// BaseURL returns the API base address for a hostname.
func BaseURL(hostname string) string {
	return "https://" + strings.TrimSuffix(hostname, "/") + BasePath
}

// Client is an HTTP client for the script debugger API.
type Client struct {
	baseURL    string
	username   string
	password   string
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new debugger client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    BaseURL(cfg.Hostname),
		username:   cfg.Username,
		password:   cfg.Password,
		clientID:   cfg.ClientID,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base address the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClientID returns the client identifier sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// do performs one API call. It is the single place where failed responses
// are translated into errors.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) (err error) {
	ctx, span := startSpan(ctx, op, method, path)
	status := 0
	defer func() { endSpan(span, status, err) }()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq, in != nil)

	c.logger.DebugContext(ctx, "debugger request", "op", op, "method", method, "path", path)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}
	status = resp.StatusCode
	c.logger.DebugContext(ctx, "debugger response", "op", op, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.Translate(resp, respBody)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return fmt.Errorf("failed to decode %s response: %w", op, errEmptyBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set(ClientIDHeader, c.clientID)
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

var (
	// errUnknownStep is returned by Step for an action the API does not define.
	errUnknownStep = errors.New("unknown step action")
	// errEmptyBody is returned when an operation expecting a payload gets none.
	errEmptyBody = errors.New("empty response body")
)
