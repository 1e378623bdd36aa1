package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/markx/internal/shared"
)

// CallbackPath is where the GitHub authorization redirect lands.
const CallbackPath = "/callback"

// CallbackResult carries the authorization code captured from a redirect.
type CallbackResult struct {
	Code  string
	State string
	err   error
}

func (c CallbackResult) Error() error { return c.err }

// CallbackHandler accepts exactly one authorization redirect and reports its code.
//
// The code is exchanged by the backend, so the handler never talks to the provider itself.
type CallbackHandler struct {
	state   string
	results chan CallbackResult
	once    sync.Once
	mu      sync.Mutex
	hit     bool
}

// NewCallbackHandler creates a handler. When state is non-empty the redirect must echo it.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{state: state, results: make(chan CallbackResult, 1)}
}

func (h *CallbackHandler) Routes() []string { return []string{CallbackPath} }

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	state := q.Get("state")
	if h.state != "" && state != h.state {
		h.send(CallbackResult{err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
		h.send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.send(CallbackResult{Code: code, State: state})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, "GitHub")
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult { return h.results }

// Wait blocks until a code arrives, the server fails, or ctx ends.
func (h *CallbackHandler) Wait(ctx context.Context, serverErrs <-chan error) (string, error) {
	select {
	case res := <-h.results:
		if res.err != nil {
			return "", res.err
		}
		return res.Code, nil
	case err := <-serverErrs:
		return "", fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return "", fmt.Errorf("%w: no authorization received: %v", shared.ErrTimeout, ctx.Err())
	}
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f6f8fa; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #2da44e; margin: 0 0 1rem 0; }
        p { color: #57606a; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>✓ Signed in with {{.}}</h1>
        <p>markx has your authorization. You can close this tab.</p>
    </div>
</body>
</html>
`))
