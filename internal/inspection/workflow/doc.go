// Package workflow holds the phase state machine and tool-allowlist policy
// that constrain which mutating operations may run at a given point in an
// inspection.
//
// The package is pure: state transitions and policy checks operate on value
// copies and never touch storage. Persistence and per-session serialization
// belong to the orchestrating service.
package workflow
