package analysis

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Frame is one parsed line of an event stream: a field name and its value.
//
// A zero Frame marks a blank line, which ends the current event.
type Frame struct {
	Field string
	Value string
}

// IsBlank reports whether the frame is an event boundary.
func (f Frame) IsBlank() bool { return f.Field == "" }

// ParseLine parses a single event-stream line without its terminator.
//
// Comment lines (leading ':') report ok=false. A line without a colon is a field with an empty value.
// One space after the colon is stripped from the value.
func ParseLine(line string) (Frame, bool) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return Frame{}, true
	}
	if strings.HasPrefix(line, ":") {
		return Frame{}, false
	}

	field, value, found := strings.Cut(line, ":")
	if !found {
		return Frame{Field: line}, true
	}
	return Frame{Field: field, Value: strings.TrimPrefix(value, " ")}, true
}

// FrameReader reads frames from an event stream, skipping comments.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next frame. A final unterminated line is returned before [io.EOF].
func (fr *FrameReader) Next() (Frame, error) {
	for {
		line, err := fr.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return Frame{}, err
		}

		frame, ok := ParseLine(strings.TrimSuffix(line, "\n"))
		if ok {
			return frame, nil
		}
	}
}

// Message is a complete named event from a push stream.
type Message struct {
	ID    string
	Event string
	Data  string
}

// EventDecoder assembles frames into [Message] values.
type EventDecoder struct {
	frames *FrameReader
}

func NewEventDecoder(r io.Reader) *EventDecoder {
	return &EventDecoder{frames: NewFrameReader(r)}
}

// Next returns the next dispatched event.
//
// Events are dispatched on a blank line. Multiple data lines are joined with "\n".
// An event without data is discarded, as is an incomplete event at end of stream.
// The event name defaults to "message".
func (d *EventDecoder) Next() (Message, error) {
	var (
		msg     Message
		data    []string
		hasData bool
	)

	for {
		frame, err := d.frames.Next()
		if err != nil {
			return Message{}, err
		}

		switch frame.Field {
		case "":
			if !hasData {
				msg = Message{}
				continue
			}
			msg.Data = strings.Join(data, "\n")
			if msg.Event == "" {
				msg.Event = "message"
			}
			return msg, nil
		case "event":
			msg.Event = frame.Value
		case "data":
			data = append(data, frame.Value)
			hasData = true
		case "id":
			msg.ID = frame.Value
		}
	}
}
