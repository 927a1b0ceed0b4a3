// Package flows implements the refresh leader algorithm and the tolerant
// token-field extraction shared by harvesting and refresh decoding.
//
// # Architecture boundaries
//
// Flows receive every side effect (store reads/writes, the network call,
// warning output) through a RefreshDeps value and report outcomes as typed
// results. The root package owns error mapping, metrics, and audit emission.
//
// # What this package must NOT do
//
//   - Import goBearer (no import cycles).
//   - Coordinate concurrency. Single-flight serialization belongs to the
//     root coordinator; RunRefresh assumes it is the only refresh in flight.
package flows
