// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - reconciliation cycle counts, durations and deferrals
//   - inferred fills per side
//   - orders placed/cancelled through the submission gateway
//   - resting ladder depth per side
package metrics
