// Package storage defines the persistence interfaces consumed by the
// workflow orchestrator and the gate engine.
//
// The gate engine treats these interfaces as the sole source of truth for
// session data and performs no caching. Implementations (e.g., SQLite) live
// in subpackages.
//
// # Error Types
//
//   - ErrNotFound: a requested record is missing.
//   - ErrVersionConflict: a workflow state write lost a concurrent race.
package storage
