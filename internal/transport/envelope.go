package transport

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// UnauthenticatedCode is the envelope code that always means the credential is missing or expired.
const UnauthenticatedCode = -401

// Envelope is the uniform response wrapper every backend endpoint returns.
type Envelope struct {
	Code        int             `json:"code"`
	Message     string          `json:"message"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
	Date        int64           `json:"date"`
	Flag        bool            `json:"flag"`
	MessageID   string          `json:"messageId"`
}

// HasData reports whether the envelope carries a non-null payload.
func (e *Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// Decode unmarshals the payload into out. A missing payload leaves out untouched.
func (e *Envelope) Decode(out any) error {
	if out == nil || !e.HasData() {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// RequestConfig adjusts a single call. A nil config means defaults.
type RequestConfig struct {
	// SkipInterceptor opts out of credential attachment and of the unauthenticated teardown and diagnostics.
	SkipInterceptor bool
	// SuppressErrorMessage clears [Error.Show]; errors are flagged for the user by default.
	SuppressErrorMessage bool
	// Params are appended to the query string.
	Params url.Values
	// Headers are added to the request, overriding defaults.
	Headers http.Header
}

// WithParams returns a config carrying only query parameters.
func WithParams(params url.Values) *RequestConfig {
	return &RequestConfig{Params: params}
}

func (c *RequestConfig) showError() bool {
	return c == nil || !c.SuppressErrorMessage
}

func (c *RequestConfig) skip() bool {
	return c != nil && c.SkipInterceptor
}
