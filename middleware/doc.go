// Package middleware is the stateless edge route guard of the dashboard.
//
// # Guards
//
//   - [Evaluate]: pure decision from request cookies.
//   - [Guard]: net/http middleware that redirects on anything but a pass.
//
// Per request the guard checks, in order: the public and static allow-lists,
// a well-formed access_token cookie (decoded unverified, role checked against
// the route policy), an api_key cookie. Anything else is sent to login.
//
// # Architecture boundaries
//
// The guard only reads cookies. Session persistence and token refresh belong
// to the authgate Client; authorization is re-checked by the backend.
//
// # What this package must NOT do
//
//   - Call the backend or any store.
//   - Keep state across requests.
//   - Treat the decoded role as authoritative.
package middleware
