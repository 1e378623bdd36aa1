package analysis

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/desertthunder/markx/internal/shared"
)

// PushTransport opens a server-push event stream.
type PushTransport interface {
	Open(ctx context.Context, url string) (EventStream, error)
}

// EventStream yields named events until it fails or is closed.
//
// Close must unblock a pending Next and may be called more than once.
type EventStream interface {
	Next() (Message, error)
	Close() error
}

// HTTPEventSource is a [PushTransport] over a long-lived text/event-stream response.
//
// Like a browser event source it sends no Authorization header; the credential travels in the URL.
type HTTPEventSource struct {
	Client *http.Client
}

func (h HTTPEventSource) Open(ctx context.Context, url string) (EventStream, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d", shared.ErrStreamTransport, resp.StatusCode)
	}
	if !isEventStream(resp.Header.Get("Content-Type")) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected content type %q", shared.ErrStreamTransport, resp.Header.Get("Content-Type"))
	}

	return &httpEventStream{resp: resp, decoder: NewEventDecoder(resp.Body)}, nil
}

type httpEventStream struct {
	resp    *http.Response
	decoder *EventDecoder
}

func (s *httpEventStream) Next() (Message, error) { return s.decoder.Next() }
func (s *httpEventStream) Close() error           { return s.resp.Body.Close() }

func isEventStream(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/event-stream"
}
