// Package venue defines the capability interface the engine needs from a
// trading venue, plus the error and retry plumbing shared by adapters.
//
// All venue-specific quirks (request signing, which amount field is
// denominated in which asset, pair casing) live in the per-venue
// subpackages; the reconciliation logic never sees them.
package venue
