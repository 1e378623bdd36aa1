package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/markx/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET,HEAD", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("GET: got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST: expected 405, got %d", rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
			t.Errorf("expected Allow header, got %q", allow)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("outer"), mark("inner"))
		router.Handle("GET", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if got := strings.Join(order, ","); got != "outer,inner,handler" {
			t.Errorf("unexpected order %q", got)
		}
	})

	t.Run("Request Logger Omits Query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		shared.SetLogLevel(logger, shared.ParseLogLevel("debug"))

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handler(NewCallbackHandler(""))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=secret-code", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") {
			t.Errorf("expected path in log, got %q", out)
		}
		if strings.Contains(out, "secret-code") {
			t.Errorf("query string leaked into log: %q", out)
		}
		if !strings.Contains(out, "200") {
			t.Errorf("expected status in log, got %q", out)
		}
	})
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Captures Code", func(t *testing.T) {
		h := NewCallbackHandler("")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=xyz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in with GitHub") {
			t.Errorf("expected success page, got %q", rec.Body.String())
		}

		res, ok := <-h.Result()
		if !ok || res.Code != "abc" || res.State != "xyz" || res.Error() != nil {
			t.Errorf("unexpected result %+v", res)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected channel to be closed after one result")
		}
	})

	t.Run("Only Once", func(t *testing.T) {
		h := NewCallbackHandler("")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=first", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=second", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replay, got %d", rec.Code)
		}

		res := <-h.Result()
		if res.Code != "first" {
			t.Errorf("expected first code, got %q", res.Code)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		h := NewCallbackHandler("expected")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=other", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if res := <-h.Result(); !errors.Is(res.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", res.Error())
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		h := NewCallbackHandler("")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		res := <-h.Result()
		if !errors.Is(res.Error(), shared.ErrAuthFailed) || !strings.Contains(res.Error().Error(), "access_denied") {
			t.Errorf("unexpected error %v", res.Error())
		}
	})

	t.Run("Wait Times Out", func(t *testing.T) {
		h := NewCallbackHandler("")
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := h.Wait(ctx, nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Wait Reports Server Error", func(t *testing.T) {
		h := NewCallbackHandler("")
		errs := make(chan error, 1)
		errs <- errors.New("boom")

		if _, err := h.Wait(context.Background(), errs); err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected server error, got %v", err)
		}
	})
}

func TestServer(t *testing.T) {
	t.Run("Serves Callback End To End", func(t *testing.T) {
		h := NewCallbackHandler("")
		router := NewBasicRouter()
		router.Handler(h)

		srv, err := Start("127.0.0.1:0", router, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		defer srv.Shutdown()

		resp, err := http.Get(srv.URL(CallbackPath + "?code=live"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		code, err := h.Wait(ctx, srv.Errors())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != "live" {
			t.Errorf("expected live, got %q", code)
		}
	})

	t.Run("Listen Failure", func(t *testing.T) {
		if _, err := Start("256.0.0.1:99999", http.NotFoundHandler(), nil); err == nil {
			t.Error("expected listen error")
		}
	})
}
