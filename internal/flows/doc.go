// Package flows contains pure-function orchestrators for every Client operation.
//
// Each flow function (RunDispatch, RunRefresh, RunLogin, RunAPIKeyLogin)
// accepts a typed dependency struct and returns a result value without side
// effects beyond those dependencies. The Client builds the deps per call and
// maps the result kinds onto its public errors, metrics and audit events.
//
// # Architecture boundaries
//
// Flow functions coordinate the transport, the session commit path, and the
// refresh coordinator. They do NOT own any of these resources; ownership
// stays with the Client and the Session.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authgate (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency funcs.
package flows
