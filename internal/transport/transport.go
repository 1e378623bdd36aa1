// Package transport is the HTTP client every backend call goes through.
//
// A request interceptor attaches the bearer credential, and a response interceptor unwraps the
// backend [Envelope], tears the credential down on an unauthenticated reply and classifies
// failures into [Error] values. Calls are never retried.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "http://localhost:8080/api"
	DefaultTimeout  = 10 * time.Second
	DefaultAuthPath = "/auth"

	// RequestIDHeader correlates a request with the envelope's messageId in backend logs.
	RequestIDHeader = "X-Request-ID"
)

// CredentialStore is the credential view the client needs.
type CredentialStore interface {
	oauth2.TokenSource
	Set(token string, persistent bool) error
	Clear() error
}

// Options configures a [Client]. Zero values select defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP round tripper.
	Transport   http.RoundTripper
	Jar         http.CookieJar
	Credentials CredentialStore
	Navigator   Navigator
	AuthPath    string
	Logger      *log.Logger
	// Limiter paces outgoing requests when set.
	Limiter   *rate.Limiter
	UserAgent string
}

// Client issues authenticated calls against the backend API.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	credentials CredentialStore
	navigator   Navigator
	authPath    string
	limiter     *rate.Limiter
	userAgent   string
	logger      *log.Logger
}

// New creates a [Client]. It fails only when the base URL cannot be parsed.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", shared.ErrInvalidConfig, opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	authPath := opts.AuthPath
	if authPath == "" {
		authPath = DefaultAuthPath
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "markx"
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "transport")

	navigator := opts.Navigator
	if navigator == nil {
		navigator = LogNavigator{Logger: logger}
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
			Jar:       opts.Jar,
		},
		credentials: opts.Credentials,
		navigator:   navigator,
		authPath:    authPath,
		limiter:     opts.Limiter,
		userAgent:   userAgent,
		logger:      logger,
	}, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// HTTPClient exposes the underlying client so streaming callers share its jar and transport.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Credentials returns the configured credential store, which may be nil.
func (c *Client) Credentials() CredentialStore { return c.credentials }

// SetToken stores a credential in the persistent or session tier.
func (c *Client) SetToken(token string, persistent bool) error {
	if c.credentials == nil {
		return fmt.Errorf("%w: no credential store configured", shared.ErrMissingConfig)
	}
	return c.credentials.Set(token, persistent)
}

// RemoveToken clears every credential tier.
func (c *Client) RemoveToken() error {
	if c.credentials == nil {
		return nil
	}
	return c.credentials.Clear()
}

// Token returns the current credential value, or "" when there is none.
func (c *Client) Token() string {
	if c.credentials == nil {
		return ""
	}
	tok, err := c.credentials.Token()
	if err != nil || tok == nil {
		return ""
	}
	return tok.AccessToken
}

// Do issues a call and returns the decoded envelope.
//
// The envelope's flag is not checked; use the typed helpers to treat flag=false as a rejection.
func (c *Client) Do(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*Envelope, error) {
	req, err := c.newRequest(ctx, method, path, body, cfg)
	if err != nil {
		return nil, c.reject(&Error{Kind: KindConfig, Method: method, Path: path, Message: "request configuration error", Err: err}, cfg)
	}

	resp, err := c.send(req, cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.reject(&Error{Kind: KindNetwork, Method: method, Path: path, Status: resp.StatusCode, Message: "network error, check connection", Err: err}, cfg)
	}

	var env Envelope
	decodeErr := json.Unmarshal(data, &env)
	if len(bytes.TrimSpace(data)) == 0 {
		decodeErr = errors.New("empty response body")
	}

	if err := c.intercept(req, resp.StatusCode, &env, decodeErr == nil, cfg); err != nil {
		return nil, err
	}

	if decodeErr != nil {
		return nil, c.reject(&Error{Kind: KindDecode, Method: method, Path: path, Status: resp.StatusCode, Message: "failed to decode response", Err: decodeErr}, cfg)
	}
	return &env, nil
}

// Get issues a GET and decodes the envelope payload into out.
func (c *Client) Get(ctx context.Context, path string, out any, cfg *RequestConfig) error {
	return c.call(ctx, http.MethodGet, path, nil, out, cfg)
}

// Post issues a POST with a JSON body and decodes the envelope payload into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, cfg *RequestConfig) error {
	return c.call(ctx, http.MethodPost, path, body, out, cfg)
}

// Put issues a PUT with a JSON body and decodes the envelope payload into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, cfg *RequestConfig) error {
	return c.call(ctx, http.MethodPut, path, body, out, cfg)
}

// Patch issues a PATCH with a JSON body and decodes the envelope payload into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any, cfg *RequestConfig) error {
	return c.call(ctx, http.MethodPatch, path, body, out, cfg)
}

// Delete issues a DELETE. Some endpoints take a body, so one may be given.
func (c *Client) Delete(ctx context.Context, path string, body, out any, cfg *RequestConfig) error {
	return c.call(ctx, http.MethodDelete, path, body, out, cfg)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, cfg *RequestConfig) error {
	env, err := c.Do(ctx, method, path, body, cfg)
	if err != nil {
		return err
	}

	if !env.Flag {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return c.reject(&Error{Kind: KindRejected, Method: method, Path: path, Code: env.Code, Message: msg}, cfg)
	}

	if err := env.Decode(out); err != nil {
		return c.reject(&Error{Kind: KindDecode, Method: method, Path: path, Code: env.Code, Message: "failed to decode response data", Err: err}, cfg)
	}
	return nil
}

// resolve builds the absolute URL for path, which may already be absolute.
func (c *Client) resolve(path string, params url.Values) (*url.URL, error) {
	var (
		u   *url.URL
		err error
	)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u, err = url.Parse(path)
	} else {
		u, err = url.Parse(c.baseURL.String() + "/" + strings.TrimLeft(path, "/"))
	}
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*http.Request, error) {
	var params url.Values
	if cfg != nil {
		params = cfg.Params
	}
	u, err := c.resolve(path, params)
	if err != nil {
		return nil, err
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if sized, ok := reader.(interface{ Size() int64 }); ok {
		req.ContentLength = sized.Size()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, shared.GenerateID())

	if cfg != nil {
		for k, vs := range cfg.Headers {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	if !cfg.skip() {
		c.authorize(req)
	}
	return req, nil
}

// authorize is the request interceptor. A missing credential is not an error.
func (c *Client) authorize(req *http.Request) {
	if c.credentials == nil {
		return
	}
	tok, err := c.credentials.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

// send waits on the limiter and performs the round trip, classifying transport failures.
func (c *Client) send(req *http.Request, cfg *RequestConfig) (*http.Response, error) {
	method, path := req.Method, req.URL.Path

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, c.reject(&Error{Kind: KindConfig, Method: method, Path: path, Message: "request configuration error", Err: err}, cfg)
		}
	}

	c.logger.Debug("request", "method", method, "path", path, "request_id", req.Header.Get(RequestIDHeader))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.reject(&Error{Kind: KindNetwork, Method: method, Path: path, Message: "network error, check connection", Err: err}, cfg)
	}
	return resp, nil
}

// intercept is the response interceptor.
//
// An envelope code of -401 or an HTTP 401 clears every credential tier and navigates to the
// authentication entry point before rejecting. Other non-2xx statuses are classified.
func (c *Client) intercept(req *http.Request, status int, env *Envelope, decoded bool, cfg *RequestConfig) error {
	method, path := req.Method, req.URL.Path

	if (decoded && env.Code == UnauthenticatedCode) || status == http.StatusUnauthorized {
		e := &Error{Kind: KindUnauthenticated, Method: method, Path: path, Status: status, Code: env.Code, Message: "Unauthorized"}
		if !cfg.skip() {
			c.handleUnauthorized()
		}
		return c.reject(e, cfg)
	}

	if status >= 200 && status < 300 {
		return nil
	}

	e := &Error{Method: method, Path: path, Status: status, Code: env.Code}
	switch status {
	case http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, "permission denied"
	case http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, "resource not found"
	case http.StatusInternalServerError:
		e.Kind, e.Message = KindServer, "internal server error"
	default:
		e.Kind, e.Message = KindStatus, "request failed"
		if decoded && env.Message != "" {
			e.Message = env.Message
		}
	}
	return c.reject(e, cfg)
}

func (c *Client) handleUnauthorized() {
	if c.credentials != nil {
		if err := c.credentials.Clear(); err != nil {
			c.logger.Error("failed to clear credentials", "error", err)
		}
	}
	c.navigator.Navigate(c.authPath)
}

// reject logs the category diagnostic and returns e.
func (c *Client) reject(e *Error, cfg *RequestConfig) error {
	e.Show = cfg.showError()

	if cfg.skip() {
		return e
	}

	kv := []any{"method", e.Method, "path", e.Path, "kind", e.Kind}
	if e.Status > 0 {
		kv = append(kv, "status", e.Status)
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err)
	}

	if e.Show {
		c.logger.Error(e.Message, kv...)
	} else {
		c.logger.Debug(e.Message, kv...)
	}
	return e
}
