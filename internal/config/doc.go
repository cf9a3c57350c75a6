// Package config loads and validates the surfer's YAML configuration.
//
// Loading is three-phase: Load (parse + ${VAR} expansion), applyDefaults,
// Validate. Structural problems (unknown venue, missing credentials) are
// fatal at startup; a malformed per-pair band section only degrades that
// pair to inactive, the process keeps running.
package config
