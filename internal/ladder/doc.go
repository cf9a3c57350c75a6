// Package ladder implements the order-ladder reconciliation core.
//
// The engine keeps a local view of our resting orders (State), diffs it
// against the order book cache's snapshot each cycle, infers fills from ids
// that disappeared remotely, and rebuilds the ladder: every fill gets a
// mirrored opposite-side order at the arbitrage offset, and each side is
// replenished back toward the band limit at rungs fanned out from the
// current reference price.
//
// Orders are identified by venue-assigned id only. Price/amount equality is
// never identity: initial ladder rungs legitimately share buckets.
package ladder
