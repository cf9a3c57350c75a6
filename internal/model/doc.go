// Package model defines shared data types used across the market surfer.
//
// Conventions:
//   - Prices and amounts: decimal.Decimal, never floats
//   - A price is always quote-per-base
//   - Pairs: "BASE_QUOTE" (e.g. "BIX_ETH"); adapters normalize case
//   - Order identity: VenueOrderID only, never price/amount equality
package model
