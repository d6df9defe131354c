// Package httpclient is the JSON HTTP adapter shared by the API clients. It keeps the session
// cookie in a jar, turns every failure into an *APIError and never panics across its boundary.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MatheusAFD/mono-repo-auth/pkg/result"
)

const maxErrorBody = 1 << 20

// Client sends JSON requests relative to a base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is set when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger. Requests are logged at debug, failures at warn.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for baseURL (e.g. http://localhost:4000).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("httpclient: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpclient: base url %q must be absolute", baseURL)
	}
	c := &Client{baseURL: u, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// Request describes one call. Path is relative to the base URL and already escaped;
// escape dynamic segments with url.PathEscape.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Cookie returns the named cookie stored for the base URL.
func (c *Client) Cookie(name string) (*http.Cookie, bool) {
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck, true
		}
	}
	return nil, false
}

// Do sends req and decodes a 2xx JSON body into T. Any failure, including a panic while
// decoding, is returned as an *APIError inside the Result.
func Do[T any](ctx context.Context, c *Client, req Request) (res result.Result[T]) {
	method := strings.ToUpper(req.Method)
	target := c.resolve(req)
	defer func() {
		if p := recover(); p != nil {
			res = result.Err[T](&APIError{Kind: KindUnknown, Method: method, URL: target, Message: fmt.Sprint(p)})
		}
	}()

	var out T
	if err := c.send(ctx, method, target, req, &out); err != nil {
		return result.Err[T](err)
	}
	return result.Ok(out)
}

func (c *Client) resolve(req Request) string {
	u := *c.baseURL
	raw := c.baseURL.EscapedPath() + req.Path
	if p, err := url.PathUnescape(raw); err == nil {
		u.Path, u.RawPath = p, raw
	} else {
		u.Path, u.RawPath = c.baseURL.Path+req.Path, ""
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

func (c *Client) send(ctx context.Context, method, target string, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return &APIError{Kind: KindUnknown, Method: method, URL: target, Message: "marshal body: " + err.Error(), Err: err}
		}
		body = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &APIError{Kind: KindUnknown, Method: method, URL: target, Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	c.logger.DebugContext(ctx, "HTTP request starting", "method", method, "url", target)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "HTTP request failed", "method", method, "url", target, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return &APIError{Kind: KindTransport, Method: method, URL: target, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := errorFromResponse(resp, method, target)
		c.logger.WarnContext(ctx, "HTTP request error", "method", method, "url", target, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds(), "message", apiErr.Message)
		return apiErr
	}
	c.logger.DebugContext(ctx, "HTTP request succeeded", "method", method, "url", target, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Kind: KindDecode, Status: resp.StatusCode, Method: method, URL: target, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

// errorBody is the NestJS error shape: {"statusCode":404,"message":"Session not found","error":"Not Found"}.
// message may also be a list of validation messages.
type errorBody struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
}

func errorFromResponse(resp *http.Response, method, target string) *APIError {
	apiErr := &APIError{
		Kind:    KindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Method:  method,
		URL:     target,
		Message: http.StatusText(resp.StatusCode),
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	if msg := decodeMessage(body.Message); msg != "" {
		apiErr.Message = msg
	} else if body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
