// Package analysis streams AI bookmark suggestions for a URL.
//
// An [Analyzer] first opens a push event stream. If the stream cannot be opened or fails
// before a terminal event, it retries once with a buffered GET that accepts either an event
// stream or a single JSON envelope. Both paths feed the same dispatcher, so callers observe
// one callback contract: any number of status updates, at most one basic-info payload, and
// exactly one terminal result or error.
package analysis

import (
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
)

const (
	DefaultTimeout = 5 * time.Minute
	StreamPath     = "/bookmark/analyze-website"
)

// User-facing messages delivered through [Callbacks].
const (
	MsgTimeout          = "request timed out, try again later"
	MsgCancelled        = "analysis cancelled"
	MsgGenericError     = "an error occurred during analysis"
	MsgFallbackConnect  = "connecting to analysis service (buffered mode)"
	MsgNonStreaming     = "analyzing website (non-streaming mode)"
	MsgFetchingInfo     = "fetching website info"
	MsgRunningAI        = "running AI analysis"
	MsgComplete         = "analysis complete"
	MsgFailed           = "analysis failed"
	MsgFailedRetry      = "analysis failed, try again later"
	MsgStreamEnded      = "analysis stream ended before a result"
	MsgNotAcceptable    = "server does not accept the requested content type, check its event stream configuration"
	MsgUnauthorized     = "authentication failed, sign in again"
	MsgForbidden        = "insufficient permission to use website analysis"
	MsgEndpointNotFound = "analysis endpoint not found, contact the administrator"
)

const fallbackAccept = "text/event-stream, application/json, */*"

// Options configures an [Analyzer].
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// Push overrides the push transport. It defaults to an [HTTPEventSource] on HTTPClient.
	Push PushTransport
	// DisablePush goes straight to the buffered-read request.
	DisablePush bool
	// HTTPClient serves the push stream and the buffered request. It should not set a Timeout.
	HTTPClient *http.Client
	// Tokens supplies the credential. May be nil.
	Tokens  oauth2.TokenSource
	Timeout time.Duration
	Logger  *log.Logger
}

// Analyzer runs website analyses. It is safe for concurrent use; every call owns its own stream.
type Analyzer struct {
	baseURL string
	push    PushTransport
	client  *http.Client
	tokens  oauth2.TokenSource
	timeout time.Duration
	logger  *log.Logger
}

func New(opts Options) *Analyzer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	var push PushTransport
	if !opts.DisablePush {
		push = opts.Push
		if push == nil {
			push = HTTPEventSource{Client: client}
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Analyzer{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		push:    push,
		client:  client,
		tokens:  opts.Tokens,
		timeout: timeout,
		logger:  shared.WithLogger(logger, "component", "analysis"),
	}
}

// StreamURL builds the analysis endpoint URL. The token is included only when non-empty.
func (a *Analyzer) StreamURL(target, token string) string {
	u := a.baseURL + StreamPath + "?url=" + url.QueryEscape(target)
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

// Analyze runs one analysis of target and blocks until it is done.
//
// The returned error mirrors the terminal callback: nil after OnResult, otherwise an error
// wrapping [shared.ErrAnalysisFailed], [shared.ErrStreamTimeout], [shared.ErrStreamTransport]
// or the context's error.
func (a *Analyzer) Analyze(ctx context.Context, target string, cb Callbacks) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	s := newSession(cb, a.logger)
	token := a.token()
	streamURL := a.StreamURL(target, token)
	logger := a.logger.With("url", target)

	if a.push != nil {
		if done := a.runPush(ctx, s, streamURL, logger); done {
			return s.result()
		}
	}

	a.runFallback(ctx, s, streamURL, token, logger)

	if !s.isDone() {
		s.fail(shared.ErrStreamTransport, MsgStreamEnded)
	}
	return s.result()
}

func (a *Analyzer) token() string {
	if a.tokens == nil {
		return ""
	}
	tok, err := a.tokens.Token()
	if err != nil || tok == nil {
		return ""
	}
	return tok.AccessToken
}

type streamItem struct {
	msg Message
	err error
}

// runPush consumes the push stream and reports whether the session is done.
// A false result selects the buffered fallback.
func (a *Analyzer) runPush(ctx context.Context, s *session, streamURL string, logger *log.Logger) bool {
	stream, err := a.push.Open(ctx, streamURL)
	if err != nil {
		if a.failOnContext(ctx, s) {
			return true
		}
		logger.Warn("push stream unavailable, falling back", "error", err)
		return false
	}

	items := make(chan streamItem)
	stop := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		for {
			msg, err := stream.Next()
			select {
			case items <- streamItem{msg: msg, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	defer func() {
		close(stop)
		stream.Close()
		<-readerDone
	}()

	for {
		select {
		case <-ctx.Done():
			a.failOnContext(ctx, s)
			return true
		case item := <-items:
			if item.err != nil {
				if a.failOnContext(ctx, s) {
					return true
				}
				logger.Warn("push stream failed before completion, falling back", "error", item.err)
				return false
			}
			if s.dispatch(decodeNamed(item.msg, logger)) {
				return true
			}
		}
	}
}

// decodeNamed turns a push message into an [Event]. Malformed bodies yield an ignorable event,
// except for error events, which still terminate with a generic message.
func decodeNamed(m Message, logger *log.Logger) Event {
	typ := EventType(m.Event)

	var ev Event
	if err := json.Unmarshal([]byte(m.Data), &ev); err != nil {
		logger.Error("malformed analysis event", "event", m.Event, "error", fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err))
		if typ == EventError {
			return Event{Type: EventError, Message: MsgGenericError}
		}
		return Event{}
	}

	ev.Type = typ
	return ev
}

// runFallback performs the buffered-read request.
func (a *Analyzer) runFallback(ctx context.Context, s *session, streamURL, token string, logger *log.Logger) {
	s.dispatch(Event{Type: EventStatus, Message: MsgFallbackConnect})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		s.fail(shared.ErrStreamTransport, MsgFailedRetry)
		return
	}
	req.Header.Set("Accept", fallbackAccept)
	req.Header.Set("Cache-Control", "no-cache")
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if a.failOnContext(ctx, s) {
			return
		}
		logger.Error("buffered analysis request failed", "error", err)
		s.fail(shared.ErrStreamTransport, MsgFailedRetry)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.fail(shared.ErrAnalysisFailed, statusMessage(resp.StatusCode))
		return
	}

	if isEventStream(resp.Header.Get("Content-Type")) {
		a.readBuffered(ctx, s, resp.Body, logger)
		return
	}
	a.playEnvelope(ctx, s, resp.Body, logger)
}

// readBuffered parses data frames carrying inline-typed events until a terminal event.
func (a *Analyzer) readBuffered(ctx context.Context, s *session, body io.Reader, logger *log.Logger) {
	frames := NewFrameReader(body)
	var lastEvent string

	for {
		frame, err := frames.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if a.failOnContext(ctx, s) {
				return
			}
			logger.Error("buffered analysis stream failed", "error", err)
			s.fail(shared.ErrStreamTransport, MsgFailedRetry)
			return
		}

		switch frame.Field {
		case "event":
			lastEvent = frame.Value
			continue
		case "":
			lastEvent = ""
			continue
		case "data":
		default:
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(frame.Value), &ev); err != nil {
			logger.Error("malformed analysis frame", "error", fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err))
			continue
		}
		if ev.Type == "" {
			ev.Type = EventType(lastEvent)
		}
		if s.dispatch(ev) {
			return
		}
	}
}

// playEnvelope synthesizes the event sequence from a single JSON envelope.
func (a *Analyzer) playEnvelope(ctx context.Context, s *session, body io.Reader, logger *log.Logger) {
	s.dispatch(Event{Type: EventStatus, Message: MsgNonStreaming})

	var env struct {
		Flag    bool            `json:"flag"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		if a.failOnContext(ctx, s) {
			return
		}
		logger.Error("undecodable analysis response", "error", err)
		s.fail(shared.ErrAnalysisFailed, MsgFailedRetry)
		return
	}

	if !env.Flag || len(env.Data) == 0 || string(env.Data) == "null" {
		msg := env.Message
		if msg == "" {
			msg = MsgFailed
		}
		s.fail(shared.ErrAnalysisFailed, msg)
		return
	}

	for _, ev := range synthesize(env.Data, logger) {
		if s.dispatch(ev) {
			return
		}
	}
}

// synthesize builds the event list a streaming server would have sent for data.
//
// basic_info is left out when data is not an object carrying site details.
func synthesize(data json.RawMessage, logger *log.Logger) []Event {
	var info struct {
		URL         string `json:"url"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	events := []Event{{Type: EventStatus, Message: MsgFetchingInfo}}
	if err := json.Unmarshal(data, &info); err != nil {
		logger.Debug("analysis data carries no basic info", "error", err)
	} else if basic, err := json.Marshal(info); err == nil {
		events = append(events, Event{Type: EventBasicInfo, Data: basic})
	}

	return append(events,
		Event{Type: EventStatus, Message: MsgRunningAI},
		Event{Type: EventResult, Message: MsgComplete, Data: data},
	)
}

// failOnContext ends the session if ctx is done, reporting whether it did.
func (a *Analyzer) failOnContext(ctx context.Context, s *session) bool {
	err := ctx.Err()
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.DeadlineExceeded):
		s.fail(shared.ErrStreamTimeout, MsgTimeout)
	default:
		s.fail(err, MsgCancelled)
	}
	return true
}

func statusMessage(status int) string {
	switch status {
	case http.StatusNotAcceptable:
		return MsgNotAcceptable
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgEndpointNotFound
	default:
		return fmt.Sprintf("HTTP error! status: %d", status)
	}
}
