package analysis

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tc := []struct {
		name  string
		line  string
		want  Frame
		wantO bool
	}{
		{name: "data with space", line: "data: {\"a\":1}", want: Frame{Field: "data", Value: "{\"a\":1}"}, wantO: true},
		{name: "data without space", line: "data:x", want: Frame{Field: "data", Value: "x"}, wantO: true},
		{name: "only one space stripped", line: "data:  x", want: Frame{Field: "data", Value: " x"}, wantO: true},
		{name: "event", line: "event: status", want: Frame{Field: "event", Value: "status"}, wantO: true},
		{name: "colon in value", line: "data: http://go.dev", want: Frame{Field: "data", Value: "http://go.dev"}, wantO: true},
		{name: "field only", line: "data", want: Frame{Field: "data"}, wantO: true},
		{name: "blank", line: "", want: Frame{}, wantO: true},
		{name: "carriage return", line: "event: result\r", want: Frame{Field: "event", Value: "result"}, wantO: true},
		{name: "comment", line: ": keep-alive", wantO: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.wantO || got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, %v; want %+v, %v", tt.line, got, ok, tt.want, tt.wantO)
			}
		})
	}

	if !(Frame{}).IsBlank() || (Frame{Field: "data"}).IsBlank() {
		t.Error("IsBlank mismatch")
	}
}

func TestFrameReader(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(": comment\nevent: status\r\n\ndata: tail"))

	want := []Frame{{Field: "event", Value: "status"}, {}, {Field: "data", Value: "tail"}}
	for i, w := range want {
		got, err := fr.Next()
		if err != nil {
			t.Fatalf("frame %d: unexpected error %v", i, err)
		}
		if got != w {
			t.Errorf("frame %d = %+v, want %+v", i, got, w)
		}
	}

	if _, err := fr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestEventDecoder(t *testing.T) {
	stream := strings.Join([]string{
		": connected",
		"",
		"event: status",
		"id: 1",
		`data: {"message":"step 1"}`,
		"",
		"data: line one",
		"data: line two",
		"",
		"event: ignored-without-data",
		"",
		"event: result",
		`data: {"message":"done"}`,
		"",
		"event: truncated",
		"data: never dispatched",
	}, "\n")

	d := NewEventDecoder(strings.NewReader(stream))

	first, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.Event != "status" || first.ID != "1" || first.Data != `{"message":"step 1"}` {
		t.Errorf("unexpected first message %+v", first)
	}

	second, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if second.Event != "message" || second.Data != "line one\nline two" {
		t.Errorf("unexpected second message %+v", second)
	}

	third, err := d.Next()
	if err != nil {
		t.Fatal(err)
	}
	if third.Event != "result" {
		t.Errorf("expected result event, got %+v", third)
	}

	if _, err := d.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("incomplete trailing event should be discarded, got %v", err)
	}
}
