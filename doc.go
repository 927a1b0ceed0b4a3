// Package goBearer provides transparent bearer-token management for outbound HTTP
// requests: token injection on every request, token harvesting from login-style
// responses, and single-flight refresh-and-retry on authentication failures.
//
// The package is designed for concurrent client workloads: a [Client] and its
// [Transport] are safe to share across goroutines after initialization through
// [Builder.Build]. When N in-flight requests fail with 401/403 at the same time,
// exactly one refresh call reaches the network; the remaining callers wait for
// and share its outcome.
//
// # Architecture boundaries
//
// goBearer is the public surface. It exposes [Client], [Builder], [Config],
// [Transport], [TokenStore], and value types (MetricsSnapshot, AuditEvent, etc.).
// The refresh leader algorithm lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Inspect token contents. Tokens are opaque strings; expiry is observed
//     through 401/403 responses, never predicted from claims.
//   - Manage more than one access/refresh pair. Multi-account token sets are the
//     caller's problem.
//   - Surface refresh machinery errors to HTTP callers. A caller only ever sees
//     its own response, its own failure, or the retried response.
//
// # Performance contract
//
// RoundTrip on the happy path costs one store read beyond the underlying
// transport. Harvesting buffers the response body once, for matching
// token-issuing paths only. A refresh cycle is allowed one store read, one
// network round-trip, and up to three store writes.
package goBearer
