package log

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCategoryString(t *testing.T) {
	cases := map[Category]string{
		CategoryConnect: "CONNECT",
		CategoryAuth:    "AUTH",
		CategorySelect:  "SELECT",
		CategoryCommand: "COMMAND",
		CategoryRetry:   "RETRY",
		CategoryHealth:  "HEALTH",
		CategoryClose:   "CLOSE",
		Category(99):    "UNKNOWN",
	}
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", cat, got, want)
		}
	}
}

func TestEventWithError(t *testing.T) {
	e := NewEvent("conn-1", CategoryCommand)
	if e.ConnectionID != "conn-1" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not populate base fields: %+v", e)
	}

	if got := e.WithError(nil); got.Err != "" {
		t.Errorf("WithError(nil) set Err = %q", got.Err)
	}
	if got := e.WithError(errors.New("broken pipe")); got.Err != "broken pipe" {
		t.Errorf("WithError set Err = %q", got.Err)
	}
}

func TestEventCBORRoundTrip(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().Truncate(0),
		ConnectionID: "8e3a27f0-aaaa-bbbb-cccc-1234567890ab",
		Category:     CategoryRetry,
		RemoteAddr:   "127.0.0.1:6379",
		Command:      "GET",
		Attempt:      3,
		Elapsed:      42 * time.Millisecond,
		Err:          "connection reset by peer",
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if decoded.ConnectionID != event.ConnectionID ||
		decoded.Category != event.Category ||
		decoded.Command != event.Command ||
		decoded.Attempt != event.Attempt ||
		decoded.Err != event.Err {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, event)
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("timestamp mismatch: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	logger.Log(NewEvent("conn-a", CategoryConnect))
	logger.Log(NewEvent("conn-a", CategoryCommand).WithError(errors.New("timeout")))
	logger.Log(NewEvent("conn-b", CategoryCommand))

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Double close must not fail.
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// Logging after close is silently ignored and does not count as a drop.
	logger.Log(NewEvent("conn-a", CategoryClose))
	if n := logger.Dropped(); n != 0 {
		t.Errorf("Dropped = %d, want 0", n)
	}

	t.Run("ReadAll", func(t *testing.T) {
		r, err := NewReader(path)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		defer r.Close()

		events, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
	})

	t.Run("FilterByConnection", func(t *testing.T) {
		r, err := NewFilteredReader(path, Filter{ConnectionID: "conn-b"})
		if err != nil {
			t.Fatalf("NewFilteredReader: %v", err)
		}
		defer r.Close()

		events, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if len(events) != 1 || events[0].ConnectionID != "conn-b" {
			t.Errorf("filter by connection returned %+v", events)
		}
	})

	t.Run("FilterFailedOnly", func(t *testing.T) {
		r, err := NewFilteredReader(path, Filter{FailedOnly: true})
		if err != nil {
			t.Fatalf("NewFilteredReader: %v", err)
		}
		defer r.Close()

		events, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if len(events) != 1 || events[0].Err != "timeout" {
			t.Errorf("FailedOnly returned %+v", events)
		}
	})

	t.Run("NextReturnsEOF", func(t *testing.T) {
		r, err := NewFilteredReader(path, Filter{ConnectionID: "no-such-conn"})
		if err != nil {
			t.Fatalf("NewFilteredReader: %v", err)
		}
		defer r.Close()

		if _, err := r.Next(); err != io.EOF {
			t.Errorf("Next on exhausted filter = %v, want EOF", err)
		}
	})
}

// recordingLogger collects events for assertions.
type recordingLogger struct {
	events []Event
}

func (l *recordingLogger) Log(event Event) {
	l.events = append(l.events, event)
}

func TestMultiLogger(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	m := NewMultiLogger(a, b)

	m.Log(NewEvent("conn-1", CategoryHealth))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("fan-out failed: a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	event := NewEvent("conn-7", CategoryCommand)
	event.Command = "SET"
	event.Attempt = 2
	adapter.Log(event)

	out := buf.String()
	for _, want := range []string{"conn-7", "COMMAND", "SET", "attempt=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output missing %q: %s", want, out)
		}
	}
}
