package log

import (
	"os"
	"sync"
)

// FileLogger appends connection events to a file as a CBOR sequence.
// Each event is encoded first and written with a single Write call, so a
// crash mid-event never leaves a truncated frame followed by good ones.
// Safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	dropped int
	closed  bool
}

// NewFileLogger opens path for appending, creating it with mode 0644 when
// absent.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f}, nil
}

// Log appends one event. Encoding and write failures never propagate to
// the connection that emitted the event; they increment the drop counter
// instead.
func (l *FileLogger) Log(event Event) {
	data, err := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err == nil {
		_, err = l.file.Write(data)
	}
	if err != nil {
		l.dropped++
	}
}

// Dropped returns how many events were lost to encoding or write failures.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the capture file. Close is idempotent; events logged
// afterwards are discarded.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
