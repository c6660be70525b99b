// Package internal contains helpers that are private to authgate, currently
// random key generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestrators for login, refresh and dispatch
//   - authtest: fake auth backend for tests, the load generator and examples
//
// # What this package must NOT do
//
//   - Export types that appear in the public authgate API.
//   - Be imported by any package outside the authgate module.
package internal
