package log

// MultiLogger fans each event out to every logger in the slice, in order.
// Combine a SlogAdapter for console output with a FileLogger capture.
type MultiLogger []Logger

// NewMultiLogger builds a MultiLogger over the given loggers.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	return MultiLogger(loggers)
}

// Log delivers the event to every logger. A slow logger delays the ones
// after it.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = MultiLogger(nil)
