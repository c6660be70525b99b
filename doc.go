// Package authgate is the authentication and session boundary of a
// management dashboard: a credential store mirrored across a
// script-readable surface and cookies, a single-flight refresh coordinator,
// and a request dispatcher that refreshes once and retries once on a 401.
//
// The package is designed for concurrent server workloads: Client and
// Session methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Client], [Session], [Builder],
// [Config], and value types (Result, APIError, MetricsSnapshot). Flow
// orchestration and audit dispatch live under internal/ and are never
// exported. Persistence surfaces live in the session package; the edge route
// guard lives in middleware and never imports this package's Client.
//
// # What this package must NOT do
//
//   - Verify token signatures. Token payloads are decoded for display and
//     coarse routing only; the backend is authoritative.
//   - Log or audit token and key values.
//   - Return Go errors from Do or Call. Every outcome is a [Result].
//
// # Request contract
//
// A logical request makes at most one refresh exchange and at most one
// retry. Refresh runs one backend exchange per session at a time; concurrent
// callers share its outcome.
package authgate
