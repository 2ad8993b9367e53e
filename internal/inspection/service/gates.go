package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/gate"
	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
	"github.com/openclaims/fieldgate/internal/platform/timeouts"
)

// RunGates evaluates every gate for a session and persists the resulting
// summary on the session's workflow state.
func (s *Service) RunGates(ctx context.Context, sessionID string) (map[gate.Gate]gate.Result, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	state, err := s.store.GetWorkflowState(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound,
			fmt.Sprintf("workflow state for session %s not found", sessionID), err)
	}
	if err != nil {
		return nil, fmt.Errorf("load workflow state: %w", err)
	}

	results, summary, err := s.runGates(ctx, sessionID, domain.Peril(state.Peril))
	if err != nil {
		return nil, err
	}

	next := state.Apply(workflow.StatePatch{GateSummary: &summary}, s.clock())
	if _, err := s.store.UpdateWorkflowState(ctx, next); err != nil {
		return nil, fmt.Errorf("persist gate summary: %w", err)
	}
	return results, nil
}

// runGates evaluates all gates under the shared evaluation timeout and
// folds the results into a persistable summary. Callers hold the session
// lock.
func (s *Service) runGates(ctx context.Context, sessionID string, peril domain.Peril) (map[gate.Gate]gate.Result, workflow.GateSummary, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.GateEvaluation)
	defer cancel()

	results, err := s.gates.RunAll(runCtx, sessionID, peril)
	if err != nil {
		return nil, workflow.GateSummary{}, fmt.Errorf("run gates: %w", err)
	}

	summary := workflow.GateSummary{
		Gates:      make(map[string]workflow.GateSnapshot, len(results)),
		ComputedAt: s.clock().UTC(),
	}
	blocked := 0
	for name, result := range results {
		summary.Gates[string(name)] = workflow.GateSnapshot{
			OK:       result.OK,
			Blockers: result.Summary.Blockers,
			Warnings: result.Summary.Warnings,
			Infos:    result.Summary.Infos,
		}
		if !result.OK {
			blocked++
		}
	}

	severity := audit.SeverityInfo
	if blocked > 0 {
		severity = audit.SeverityWarn
	}
	s.emitAudit(ctx, storage.AuditEvent{
		SessionID: sessionID,
		Kind:      "gates.evaluated",
		Severity:  string(severity),
		Message:   fmt.Sprintf("%d of %d gates blocked", blocked, len(results)),
	})
	return results, summary, nil
}
