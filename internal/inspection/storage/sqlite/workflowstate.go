package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
)

// PutWorkflowState inserts or replaces the workflow state for a session.
// It is used to bootstrap a fresh session; concurrent-safe rewrites go
// through UpdateWorkflowState.
func (s *Store) PutWorkflowState(ctx context.Context, state workflow.State) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sessionID := strings.TrimSpace(state.SessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	contextJSON, toolErrJSON, summaryJSON, err := marshalStateColumns(state)
	if err != nil {
		return err
	}
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO workflow_states (
		   session_id, claim_id, peril, phase, step_id,
		   context_json, last_tool_error_json, last_gate_summary_json,
		   version, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		state.ClaimID,
		state.Peril,
		string(state.Phase),
		state.StepID,
		contextJSON,
		toolErrJSON,
		summaryJSON,
		state.Version,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put workflow state: %w", err)
	}
	return nil
}

// GetWorkflowState returns the workflow state for a session.
func (s *Store) GetWorkflowState(ctx context.Context, sessionID string) (workflow.State, error) {
	if err := s.ready(ctx); err != nil {
		return workflow.State{}, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, claim_id, peril, phase, step_id,
		        context_json, last_tool_error_json, last_gate_summary_json,
		        version, updated_at
		 FROM workflow_states WHERE session_id = ?`,
		sessionID,
	)
	return scanWorkflowState(row)
}

// UpdateWorkflowState persists a rewritten workflow state. The write only
// lands when exactly one older version is still on disk; a lost race
// returns ErrVersionConflict so the caller can re-read and retry.
func (s *Store) UpdateWorkflowState(ctx context.Context, state workflow.State) (workflow.State, error) {
	if err := s.ready(ctx); err != nil {
		return workflow.State{}, err
	}
	sessionID := strings.TrimSpace(state.SessionID)
	if sessionID == "" {
		return workflow.State{}, fmt.Errorf("session id is required")
	}

	contextJSON, toolErrJSON, summaryJSON, err := marshalStateColumns(state)
	if err != nil {
		return workflow.State{}, err
	}
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE workflow_states SET
		   claim_id = ?, peril = ?, phase = ?, step_id = ?,
		   context_json = ?, last_tool_error_json = ?, last_gate_summary_json = ?,
		   version = ?, updated_at = ?
		 WHERE session_id = ? AND version = ?`,
		state.ClaimID,
		state.Peril,
		string(state.Phase),
		state.StepID,
		contextJSON,
		toolErrJSON,
		summaryJSON,
		state.Version,
		toMillis(updatedAt),
		sessionID,
		state.Version-1,
	)
	if err != nil {
		return workflow.State{}, fmt.Errorf("update workflow state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return workflow.State{}, fmt.Errorf("update workflow state: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing record from a version race.
		if _, getErr := s.GetWorkflowState(ctx, sessionID); getErr != nil {
			return workflow.State{}, getErr
		}
		return workflow.State{}, storage.ErrVersionConflict
	}
	return state, nil
}

func marshalStateColumns(state workflow.State) (contextJSON string, toolErrJSON, summaryJSON any, err error) {
	rawContext, err := json.Marshal(state.Context)
	if err != nil {
		return "", nil, nil, fmt.Errorf("marshal workflow context: %w", err)
	}
	contextJSON = string(rawContext)
	if state.LastToolError != nil {
		raw, err := json.Marshal(state.LastToolError)
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal tool error: %w", err)
		}
		toolErrJSON = string(raw)
	}
	if state.LastGateSummary != nil {
		raw, err := json.Marshal(state.LastGateSummary)
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal gate summary: %w", err)
		}
		summaryJSON = string(raw)
	}
	return contextJSON, toolErrJSON, summaryJSON, nil
}

func scanWorkflowState(row *sql.Row) (workflow.State, error) {
	var state workflow.State
	var phase, contextJSON string
	var toolErrJSON, summaryJSON sql.NullString
	var updatedAt int64
	err := row.Scan(
		&state.SessionID, &state.ClaimID, &state.Peril, &phase, &state.StepID,
		&contextJSON, &toolErrJSON, &summaryJSON,
		&state.Version, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return workflow.State{}, storage.ErrNotFound
	}
	if err != nil {
		return workflow.State{}, fmt.Errorf("get workflow state: %w", err)
	}
	state.Phase = workflow.Phase(phase)
	state.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(contextJSON), &state.Context); err != nil {
		return workflow.State{}, fmt.Errorf("unmarshal workflow context: %w", err)
	}
	if toolErrJSON.Valid && toolErrJSON.String != "" {
		var toolErr workflow.ToolError
		if err := json.Unmarshal([]byte(toolErrJSON.String), &toolErr); err != nil {
			return workflow.State{}, fmt.Errorf("unmarshal tool error: %w", err)
		}
		state.LastToolError = &toolErr
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary workflow.GateSummary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return workflow.State{}, fmt.Errorf("unmarshal gate summary: %w", err)
		}
		state.LastGateSummary = &summary
	}
	return state, nil
}
