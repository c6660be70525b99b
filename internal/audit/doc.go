// Package audit implements async event dispatching for session lifecycle
// events.
//
// # Components
//
//   - [Sink]: consumer interface (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: one record with timestamp, type, session, user and request id.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the Client does.
//
// # What this package must NOT do
//
//   - Carry token or API key values in an Event.
//   - Import authgate or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
