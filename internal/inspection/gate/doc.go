// Package gate implements the four inspection gates: sketch, scope,
// photo-damage, and export.
//
// A gate is a pure read-only check over accumulated session data. Gates
// never mutate data and never surface data-quality problems as Go errors;
// every finding becomes a severity-tagged Issue in the returned Result.
// A Go error from a gate means the evaluation itself could not run
// (storage failure), not that the data is bad.
package gate
