// Package audit records operational audit events for inspection sessions
// through an explicitly injected emitter, registered at startup.
package audit
