// Package jwt decodes and mints the compact three-part tokens that carry a
// dashboard identity.
//
// # Unverified decode
//
// [DecodeUnverified] and [WellFormed] inspect a token without checking its
// signature. The edge guard and UI-only identity display use them because they
// never hold the signing key. Results are non-authoritative: the backend must
// re-check the role on every privileged operation.
//
// # Manager
//
// [Manager] signs and verifies tokens with a configured key. It backs the fake
// auth service used by tests, the load-test binary and the example server.
//
// # What this package must NOT do
//
//   - Perform I/O or read cookies and headers.
//   - Import authgate, session, or middleware.
package jwt
