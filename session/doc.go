// Package session provides the persistence surfaces that hold a dashboard
// credential.
//
// # Surfaces
//
// A [Surface] is the application-readable store: [MemorySurface] for a single
// process, [RedisSurface] for an edge server fleet, [FileSurface] for the CLI.
// [CookieSurface] mirrors the same [Record] as the access_token, refresh_token
// and api_key cookies the edge guard reads.
//
// # Binary encoding
//
// Redis keeps records in a compact versioned binary format ([Encode], [Decode]).
// The format is append-only: new versions add fields but never reinterpret old
// ones.
//
// # What this package must NOT do
//
//   - Decide which credential wins; the caller commits whole Records.
//   - Call the auth backend.
//   - Import authgate, jwt, or middleware.
package session
