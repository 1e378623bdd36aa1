package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoCredential     = fmt.Errorf("no credential stored")
	ErrForbidden        = fmt.Errorf("permission denied")
	ErrAuthFailed       = fmt.Errorf("authorization failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Transport errors
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrServerError        = fmt.Errorf("server error")
	ErrNetwork            = fmt.Errorf("network error")
	ErrRequestConfig      = fmt.Errorf("request configuration error")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRejected           = fmt.Errorf("request rejected by server")
	ErrDecodeResponse     = fmt.Errorf("failed to decode response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Streaming analysis errors
	ErrStreamTimeout    = fmt.Errorf("analysis timed out")
	ErrStreamTransport  = fmt.Errorf("push transport failed")
	ErrMalformedPayload = fmt.Errorf("malformed event payload")
	ErrAnalysisFailed   = fmt.Errorf("analysis failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
