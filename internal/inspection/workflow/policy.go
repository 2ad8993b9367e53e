package workflow

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

// Tool names for the inspection workflow. Tools are named mutating
// operations gated by phase before execution.
const (
	ToolSetContext   = "set_context"
	ToolAdvancePhase = "advance_phase"
	ToolRunGates     = "run_gates"

	ToolAddRoom    = "add_room"
	ToolUpdateRoom = "update_room"
	ToolDeleteRoom = "delete_room"

	ToolAddOpening    = "add_opening"
	ToolUpdateOpening = "update_opening"
	ToolDeleteOpening = "delete_opening"

	ToolAddDamage    = "add_damage"
	ToolUpdateDamage = "update_damage"
	ToolDeleteDamage = "delete_damage"

	ToolAddLineItem    = "add_line_item"
	ToolUpdateLineItem = "update_line_item"
	ToolDeleteLineItem = "delete_line_item"

	ToolAddScopeItem    = "add_scope_item"
	ToolDeleteScopeItem = "delete_scope_item"

	ToolAttachPhoto  = "attach_photo"
	ToolConfirmPhoto = "confirm_photo"

	ToolExportPackage = "export_package"
)

// phaseTools maps each phase to its permitted tool set. Creation tools are
// restricted to their capture phases; export tools to the terminal phase.
var phaseTools = map[Phase][]string{
	PhaseBriefing: {
		ToolSetContext, ToolRunGates, ToolAdvancePhase,
	},
	PhaseSketch: {
		ToolSetContext, ToolRunGates, ToolAdvancePhase,
		ToolAddRoom, ToolUpdateRoom, ToolDeleteRoom,
		ToolAddOpening, ToolUpdateOpening, ToolDeleteOpening,
	},
	PhaseScope: {
		ToolSetContext, ToolRunGates, ToolAdvancePhase,
		ToolAddDamage, ToolUpdateDamage, ToolDeleteDamage,
		ToolAddLineItem, ToolUpdateLineItem, ToolDeleteLineItem,
		ToolAddScopeItem, ToolDeleteScopeItem,
	},
	PhasePhotos: {
		ToolSetContext, ToolRunGates, ToolAdvancePhase,
		ToolAttachPhoto, ToolConfirmPhoto,
	},
	PhaseReview: {
		ToolSetContext, ToolRunGates, ToolAdvancePhase,
		ToolUpdateLineItem, ToolDeleteLineItem,
	},
	PhaseExport: {
		ToolRunGates, ToolExportPackage,
	},
}

// contextDependentTools require a room reference before they may run.
var contextDependentTools = map[string]bool{
	ToolAddOpening:    true,
	ToolUpdateOpening: true,
	ToolDeleteOpening: true,
}

// AllowedTools returns the sorted tool names permitted in a phase.
func AllowedTools(phase Phase) []string {
	tools := phaseTools[phase]
	out := make([]string, len(tools))
	copy(out, tools)
	sort.Strings(out)
	return out
}

// ToolAllowed reports whether a tool may run in the given phase.
func ToolAllowed(phase Phase, tool string) bool {
	for _, name := range phaseTools[phase] {
		if name == tool {
			return true
		}
	}
	return false
}

// AssertToolAllowed returns a structured error when the tool is outside the
// phase's allowed set.
func AssertToolAllowed(phase Phase, tool string) error {
	if ToolAllowed(phase, tool) {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeToolNotAllowed,
		fmt.Sprintf("tool %s is not allowed in phase %s", tool, phase),
		map[string]string{"Tool": tool, "Phase": string(phase)},
	)
}

// ToolArgs is the argument bag accompanying a tool call. Only the context
// fields the policy layer resolves are modeled; executors decode the rest.
type ToolArgs struct {
	RoomID      string
	ElevationID string
	CurrentView string
}

// ResolvedContext is the context a context-dependent tool executes with.
// Call-site arguments override stored session context.
type ResolvedContext struct {
	RoomID      string
	ElevationID string
	CurrentView string
}

// AssertToolContext resolves the execution context for a tool. For
// context-dependent tools it fails when neither the session context nor the
// call arguments supply a room reference.
func AssertToolContext(state Context, tool string, args ToolArgs) (ResolvedContext, error) {
	resolved := ResolvedContext{
		RoomID:      firstNonEmpty(args.RoomID, state.RoomID),
		ElevationID: firstNonEmpty(args.ElevationID, state.ElevationID),
		CurrentView: firstNonEmpty(args.CurrentView, state.CurrentView),
	}

	if contextDependentTools[tool] && resolved.RoomID == "" && resolved.ElevationID == "" {
		return ResolvedContext{}, apperrors.WithMetadata(
			apperrors.CodeMissingContext,
			fmt.Sprintf("tool %s requires a room or elevation reference", tool),
			map[string]string{"Tool": tool},
		)
	}
	return resolved, nil
}

// FailureType classifies tool validation failures surfaced to callers.
const FailureTypeContextError = "CONTEXT_ERROR"

// ToolFailure is the structured result returned when a tool call fails
// workflow validation. It is a result value, never a thrown error, so the
// orchestrator boundary stays exception-free.
type ToolFailure struct {
	Type         string            `json:"type"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Hint         string            `json:"hint,omitempty"`
	AllowedTools []string          `json:"allowedTools,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
}

// ValidateTool checks a tool call against the session's workflow state. It
// returns nil when the call may proceed, or a structured failure.
func ValidateTool(state State, tool string, args ToolArgs) *ToolFailure {
	if err := AssertToolAllowed(state.Phase, tool); err != nil {
		allowed := AllowedTools(state.Phase)
		return &ToolFailure{
			Type:    FailureTypeContextError,
			Code:    string(apperrors.CodeToolNotAllowed),
			Message: fmt.Sprintf("tool %s is not allowed in phase %s", tool, state.Phase),
			Hint: fmt.Sprintf("allowed tools: %s; call %s to move to the next phase",
				strings.Join(allowed, ", "), ToolAdvancePhase),
			AllowedTools: allowed,
			Details:      map[string]string{"phase": string(state.Phase)},
		}
	}

	if _, err := AssertToolContext(state.Context, tool, args); err != nil {
		return &ToolFailure{
			Type:    FailureTypeContextError,
			Code:    string(apperrors.CodeMissingContext),
			Message: fmt.Sprintf("tool %s requires a room or elevation reference", tool),
			Hint:    fmt.Sprintf("call %s with a roomId before using %s", ToolSetContext, tool),
			Details: map[string]string{"tool": tool},
		}
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
