package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"gcphcp/pkg/logging"
)

const subsystem = "APIClient"

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetries      = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 30 * time.Second

	HeaderRequestID = "X-Request-ID"
)

// HeaderProvider supplies the authentication headers for each request.
// *auth.Manager implements it.
type HeaderProvider interface {
	AuthHeaders(ctx context.Context) (http.Header, error)
}

// Client talks to the hosted control plane REST API.
type Client struct {
	baseURL   string
	auth      HeaderProvider
	userAgent string
	timeout   time.Duration
	http      *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetries sets how many times a retryable request is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

// WithRetryWait bounds the backoff between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// New returns a Client for the API at baseURL.
func New(baseURL string, auth HeaderProvider, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = DefaultRetries
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.Logger = retryLogger{}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		auth:      auth,
		userAgent: "gcphcp-cli",
		timeout:   DefaultTimeout,
		http:      rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.HTTPClient.Timeout = c.timeout
	return c
}

// BaseURL returns the API endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type methodKey struct{}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// checkRetry retries idempotent requests on connection errors and on
// 429, 500, 502, 503 and 504.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if method, _ := ctx.Value(methodKey{}).(string); !isIdempotent(method) {
		return false, nil
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPut, path, query, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, out)
}

// Health calls the API health endpoint.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.Get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.buildURL(path, query)

	authHeaders, err := c.auth.AuthHeaders(ctx)
	if err != nil {
		return &APIError{
			Kind:    ErrAuthenticationRequired,
			Message: "Authentication failed",
			Cause:   err,
		}
	}

	var rawBody any
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		rawBody = data
	}

	req, err := retryablehttp.NewRequestWithContext(context.WithValue(ctx, methodKey{}, method), method, target, rawBody)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	for k, vs := range authHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	logging.Debug(subsystem, "Making %s request to %s", method, target)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(target, err)
	}
	return handleResponse(resp, data, out)
}

func (c *Client) transportError(target string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{
			Kind:    ErrTimeout,
			Message: fmt.Sprintf("Request to %s timed out after %s", target, c.timeout),
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &APIError{Kind: ErrConnection, Message: fmt.Sprintf("Request to %s was cancelled", target), Cause: err}
	}
	return &APIError{
		Kind:    ErrConnection,
		Message: fmt.Sprintf("Failed to connect to %s", target),
		Cause:   err,
	}
}

func handleResponse(resp *http.Response, data []byte, out any) error {
	requestID := resp.Header.Get(HeaderRequestID)
	isJSON := strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && json.Valid(data)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if !isJSON {
			if m, ok := out.(*map[string]any); ok {
				*m = map[string]any{"message": string(data)}
				return nil
			}
			return &APIError{
				Message:    "Unexpected non-JSON response",
				StatusCode: resp.StatusCode,
				RequestID:  requestID,
			}
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{
				Message:    "Failed to decode response",
				StatusCode: resp.StatusCode,
				RequestID:  requestID,
				Cause:      err,
			}
		}
		return nil
	}

	responseData := map[string]any{"message": string(data)}
	if isJSON {
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err == nil {
			responseData = decoded
		}
	}

	apiErr := &APIError{
		Kind:         kindForStatus(resp.StatusCode),
		Message:      errorMessage(responseData, resp.StatusCode),
		StatusCode:   resp.StatusCode,
		ResponseData: responseData,
		RequestID:    requestID,
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}

// retryLogger routes retryablehttp's messages to the debug log.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...any) { logging.Debug(subsystem, "%s %v", msg, kv) }
func (retryLogger) Info(msg string, kv ...any)  { logging.Debug(subsystem, "%s %v", msg, kv) }
func (retryLogger) Debug(msg string, kv ...any) { logging.Debug(subsystem, "%s %v", msg, kv) }
func (retryLogger) Warn(msg string, kv ...any)  { logging.Debug(subsystem, "%s %v", msg, kv) }
