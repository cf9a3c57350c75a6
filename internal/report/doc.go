// Package report publishes trading activity to operators: inferred fills as
// they happen and periodic summaries of the resting ladder. Reporting is
// observational; a failed report never affects order flow.
package report
