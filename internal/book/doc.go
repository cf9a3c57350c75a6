// Package book implements the Order Book Cache.
//
// The cache owns the single authoritative remote snapshot:
//   - a background task refreshes open orders and balances on a fixed interval
//   - Snapshot() is a non-blocking read of the last successful poll
//   - place/cancel operations are asynchronous and best-effort; the
//     Placing/Cancelling flags stay up while any are outstanding
//
// Consumers must treat every snapshot as a fresh, possibly-stale copy;
// staleness is bounded by the refresh interval.
package book
