// Package log captures connection lifecycle and command events.
//
// The connection layer emits one Event per notable occurrence: a dial, an
// authentication exchange, a command round trip, a retry attempt, a health
// probe, a close. Applications receive events through the Logger interface
// and decide what to do with them.
//
// Provided sinks:
//
//   - NoopLogger: discards everything (the default).
//   - FileLogger: appends CBOR-encoded events to a capture file.
//   - SlogAdapter: forwards events to a log/slog logger.
//   - MultiLogger: fans out to several sinks at once.
//
// Capture files written by FileLogger are read back with Reader, optionally
// filtered by connection ID, category, or time range.
package log
