// Package errors provides structured error handling for fieldgate services.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Workflow policy errors
	CodeToolNotAllowed        Code = "TOOL_NOT_ALLOWED"
	CodeMissingContext        Code = "MISSING_CONTEXT"
	CodeWorkflowPhaseInvalid  Code = "WORKFLOW_PHASE_INVALID"
	CodeWorkflowPhaseTerminal Code = "WORKFLOW_PHASE_TERMINAL"
	CodeWorkflowAdvanceDenied Code = "WORKFLOW_ADVANCE_DENIED"

	// Session errors
	CodeSessionEmptyClaimID Code = "SESSION_EMPTY_CLAIM_ID"
	CodeSessionEmptyID      Code = "SESSION_EMPTY_ID"

	// Tool execution errors
	CodeToolUnknown      Code = "TOOL_UNKNOWN"
	CodeToolInvalidInput Code = "TOOL_INVALID_INPUT"

	// Export errors
	CodeExportBlocked      Code = "EXPORT_BLOCKED"
	CodeExportInvalidData  Code = "EXPORT_INVALID_DATA"
	CodeExportUnreconciled Code = "EXPORT_UNRECONCILED_TOTALS"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeVersionConflict Code = "VERSION_CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeSessionEmptyClaimID,
		CodeSessionEmptyID,
		CodeToolInvalidInput,
		CodeExportInvalidData:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeToolNotAllowed,
		CodeMissingContext,
		CodeWorkflowPhaseInvalid,
		CodeWorkflowPhaseTerminal,
		CodeWorkflowAdvanceDenied,
		CodeExportBlocked,
		CodeExportUnreconciled,
		CodeVersionConflict:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeToolUnknown:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
