package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

// ToolResult is the outcome of one tool call. Exactly one of Output and
// Failure is set; Failure carries workflow rejections back to the caller as
// a value rather than an error.
type ToolResult struct {
	Output  any                   `json:"output,omitempty"`
	Failure *workflow.ToolFailure `json:"failure,omitempty"`
	State   workflow.State        `json:"state"`
}

// toolContextArgs is the slice of a tool's argument bag the policy layer
// resolves context from.
type toolContextArgs struct {
	RoomID      string `json:"roomId"`
	ElevationID string `json:"elevationId"`
	CurrentView string `json:"currentView"`
}

// ExecuteTool runs one named tool for a session. The call is serialized
// against other writers for the same session, validated against the
// session's workflow phase and context, executed, and its state rewrite
// persisted with an optimistic version check.
func (s *Service) ExecuteTool(ctx context.Context, sessionID, tool string, args json.RawMessage) (ToolResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	state, err := s.store.GetWorkflowState(ctx, sessionID)
	bootstrap := errors.Is(err, storage.ErrNotFound)
	if bootstrap {
		// Tool calls may arrive before the session has any workflow
		// state. Workflow validation is waived for those calls and the
		// write below creates the record.
		state = workflow.NewState("", sessionID, "", s.clock())
	} else if err != nil {
		return ToolResult{}, fmt.Errorf("load workflow state: %w", err)
	}

	executor, known := s.executorFor(tool)
	if !known {
		return ToolResult{}, apperrors.WithMetadata(apperrors.CodeToolUnknown,
			fmt.Sprintf("unknown tool %s", tool), map[string]string{"Tool": tool})
	}

	var ctxArgs toolContextArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &ctxArgs); err != nil {
			return ToolResult{}, apperrors.Wrap(apperrors.CodeToolInvalidInput,
				fmt.Sprintf("tool %s arguments are not valid JSON", tool), err)
		}
	}

	if !bootstrap {
		if failure := workflow.ValidateTool(state, tool, workflow.ToolArgs{
			RoomID:      ctxArgs.RoomID,
			ElevationID: ctxArgs.ElevationID,
			CurrentView: ctxArgs.CurrentView,
		}); failure != nil {
			return s.rejectTool(ctx, state, tool, failure, bootstrap)
		}
	}

	resolved, err := workflow.AssertToolContext(state.Context, tool, workflow.ToolArgs{
		RoomID:      ctxArgs.RoomID,
		ElevationID: ctxArgs.ElevationID,
		CurrentView: ctxArgs.CurrentView,
	})
	if err != nil && !bootstrap {
		return ToolResult{}, err
	}

	output, patch, err := executor(ctx, execInput{
		state:    state,
		resolved: resolved,
		args:     args,
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return s.rejectTool(ctx, state, tool, &workflow.ToolFailure{
				Type:    workflow.FailureTypeContextError,
				Code:    string(appErr.Code),
				Message: appErr.Message,
				Details: appErr.Metadata,
			}, bootstrap)
		}
		return ToolResult{}, fmt.Errorf("execute %s: %w", tool, err)
	}

	next := state.Apply(patch, s.clock())
	next.LastToolError = nil
	persisted, err := s.persistState(ctx, next, bootstrap)
	if err != nil {
		return ToolResult{}, fmt.Errorf("persist workflow state: %w", err)
	}

	s.emitAudit(ctx, storage.AuditEvent{
		SessionID: sessionID,
		Kind:      "tool.executed",
		Severity:  string(audit.SeverityInfo),
		Message:   fmt.Sprintf("tool %s executed", tool),
		Metadata:  map[string]string{"tool": tool, "phase": string(persisted.Phase)},
	})
	return ToolResult{Output: output, State: persisted}, nil
}

// rejectTool records a validation failure on the workflow state and returns
// it as a result value. The rejection itself is not an error: the session
// stays healthy and the caller is told how to proceed.
func (s *Service) rejectTool(ctx context.Context, state workflow.State, tool string, failure *workflow.ToolFailure, create bool) (ToolResult, error) {
	now := s.clock()
	next := state.RecordToolError(workflow.ToolError{
		Tool:    tool,
		Code:    failure.Code,
		Message: failure.Message,
		Details: failure.Details,
		At:      now.UTC(),
	}, now)

	persisted, err := s.persistState(ctx, next, create)
	if err != nil {
		return ToolResult{}, fmt.Errorf("persist tool failure: %w", err)
	}

	s.emitAudit(ctx, storage.AuditEvent{
		SessionID: state.SessionID,
		Kind:      "tool.rejected",
		Severity:  string(audit.SeverityWarn),
		Message:   failure.Message,
		Metadata:  map[string]string{"tool": tool, "code": failure.Code},
	})
	return ToolResult{Failure: failure, State: persisted}, nil
}

// persistState writes the state back. The first write for a session creates
// the record; later writes go through the optimistic version check.
func (s *Service) persistState(ctx context.Context, next workflow.State, create bool) (workflow.State, error) {
	if create {
		if err := s.store.PutWorkflowState(ctx, next); err != nil {
			return workflow.State{}, err
		}
		return next, nil
	}
	return s.store.UpdateWorkflowState(ctx, next)
}

// execInput bundles what an executor needs to run.
type execInput struct {
	state    workflow.State
	resolved workflow.ResolvedContext
	args     json.RawMessage
}

// executorFunc runs one tool. It returns the tool's output payload and the
// workflow state patch to apply on success.
type executorFunc func(ctx context.Context, in execInput) (any, workflow.StatePatch, error)

func (s *Service) executorFor(tool string) (executorFunc, bool) {
	switch tool {
	case workflow.ToolSetContext:
		return s.execSetContext, true
	case workflow.ToolAdvancePhase:
		return s.execAdvancePhase, true
	case workflow.ToolRunGates:
		return s.execRunGates, true
	case workflow.ToolAddRoom, workflow.ToolUpdateRoom:
		return s.execPutRoom, true
	case workflow.ToolDeleteRoom:
		return s.execDeleteRoom, true
	case workflow.ToolAddOpening, workflow.ToolUpdateOpening:
		return s.execPutOpening, true
	case workflow.ToolDeleteOpening:
		return s.execDeleteOpening, true
	case workflow.ToolAddDamage, workflow.ToolUpdateDamage:
		return s.execPutDamage, true
	case workflow.ToolDeleteDamage:
		return s.execDeleteDamage, true
	case workflow.ToolAddLineItem, workflow.ToolUpdateLineItem:
		return s.execPutLineItem, true
	case workflow.ToolDeleteLineItem:
		return s.execDeleteLineItem, true
	case workflow.ToolAddScopeItem:
		return s.execPutScopeItem, true
	case workflow.ToolDeleteScopeItem:
		return s.execDeleteScopeItem, true
	case workflow.ToolAttachPhoto:
		return s.execAttachPhoto, true
	case workflow.ToolConfirmPhoto:
		return s.execConfirmPhoto, true
	case workflow.ToolExportPackage:
		return s.execExportPackage, true
	}
	return nil, false
}

func decodeArgs(tool string, args json.RawMessage, into any) error {
	if len(args) == 0 {
		return apperrors.New(apperrors.CodeToolInvalidInput,
			fmt.Sprintf("tool %s requires arguments", tool))
	}
	if err := json.Unmarshal(args, into); err != nil {
		return apperrors.Wrap(apperrors.CodeToolInvalidInput,
			fmt.Sprintf("tool %s arguments do not decode", tool), err)
	}
	return nil
}
