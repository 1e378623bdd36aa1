package analysis

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/shared"
)

// EventType discriminates analysis events.
type EventType string

const (
	EventStatus    EventType = "status"
	EventBasicInfo EventType = "basic_info"
	EventResult    EventType = "result"
	EventError     EventType = "error"
)

// Terminal reports whether the event ends an invocation.
func (t EventType) Terminal() bool {
	return t == EventResult || t == EventError
}

// Event is one step of an analysis exchange.
//
// Buffered-read frames carry the type inline; push events carry it as the event name.
type Event struct {
	Type    EventType       `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Callbacks receive analysis progress. Nil callbacks are skipped.
type Callbacks struct {
	OnStatus    func(message string)
	OnBasicInfo func(data json.RawMessage)
	OnResult    func(data json.RawMessage)
	OnError     func(message string)
}

// session guarantees that an invocation ends in exactly one terminal callback.
type session struct {
	mu     sync.Mutex
	cb     Callbacks
	done   bool
	err    error
	events int
	logger *log.Logger
}

func newSession(cb Callbacks, logger *log.Logger) *session {
	return &session{cb: cb, logger: logger}
}

// dispatch delivers ev and reports whether the session is done.
//
// Every delivery path, push or buffered or synthesized, goes through here.
func (s *session) dispatch(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return true
	}

	switch ev.Type {
	case EventStatus:
		s.status(ev.Message)
	case EventBasicInfo:
		s.status(ev.Message)
		if s.cb.OnBasicInfo != nil {
			s.cb.OnBasicInfo(ev.Data)
		}
	case EventResult:
		s.status(ev.Message)
		if s.cb.OnResult != nil {
			s.cb.OnResult(ev.Data)
		}
		s.done = true
	case EventError:
		msg := ev.Message
		if msg == "" {
			msg = MsgGenericError
		}
		s.finish(fmt.Errorf("%w: %s", shared.ErrAnalysisFailed, msg), msg)
	default:
		s.logger.Debug("ignoring unknown analysis event", "type", ev.Type)
		return false
	}

	s.events++
	return s.done
}

// fail ends the session with msg unless it already ended.
func (s *session) fail(sentinel error, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}
	s.finish(fmt.Errorf("%w: %s", sentinel, msg), msg)
}

func (s *session) finish(err error, msg string) {
	s.done = true
	s.err = err
	if s.cb.OnError != nil {
		s.cb.OnError(msg)
	}
}

func (s *session) status(msg string) {
	if msg != "" && s.cb.OnStatus != nil {
		s.cb.OnStatus(msg)
	}
}

func (s *session) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *session) result() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
