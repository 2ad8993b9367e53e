package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

// StartSessionInput describes a new inspection session.
type StartSessionInput struct {
	ClaimID string
	Peril   domain.Peril
}

// StartSession creates an inspection session and its initial workflow
// state in the first phase.
func (s *Service) StartSession(ctx context.Context, input StartSessionInput) (domain.InspectionSession, workflow.State, error) {
	session, err := domain.CreateSession(domain.CreateSessionInput{
		ClaimID: input.ClaimID,
		Peril:   input.Peril,
	}, s.clock, s.newID)
	if errors.Is(err, domain.ErrEmptyClaimID) {
		return domain.InspectionSession{}, workflow.State{},
			apperrors.New(apperrors.CodeSessionEmptyClaimID, "claim id is required")
	}
	if err != nil {
		return domain.InspectionSession{}, workflow.State{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.store.PutSession(ctx, session); err != nil {
		return domain.InspectionSession{}, workflow.State{}, fmt.Errorf("store session: %w", err)
	}

	state := workflow.NewState(session.ClaimID, session.ID, string(session.Peril), s.clock())
	if err := s.store.PutWorkflowState(ctx, state); err != nil {
		return domain.InspectionSession{}, workflow.State{}, fmt.Errorf("store workflow state: %w", err)
	}

	s.emitAudit(ctx, storage.AuditEvent{
		SessionID: session.ID,
		Kind:      "session.started",
		Severity:  string(audit.SeverityInfo),
		Message:   fmt.Sprintf("inspection session started for claim %s", session.ClaimID),
		Metadata:  map[string]string{"peril": string(session.Peril)},
	})
	return session, state, nil
}

// GetSession returns one inspection session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.InspectionSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.InspectionSession{}, apperrors.Wrap(apperrors.CodeNotFound,
			fmt.Sprintf("session %s not found", sessionID), err)
	}
	return session, err
}

// GetWorkflowState returns the workflow state for one session.
func (s *Service) GetWorkflowState(ctx context.Context, sessionID string) (workflow.State, error) {
	state, err := s.store.GetWorkflowState(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return workflow.State{}, apperrors.Wrap(apperrors.CodeNotFound,
			fmt.Sprintf("workflow state for session %s not found", sessionID), err)
	}
	return state, err
}

// PutClaim stores claim header data referenced by inspection sessions.
func (s *Service) PutClaim(ctx context.Context, claim domain.Claim) error {
	return s.store.PutClaim(ctx, claim)
}

// GetClaim returns one claim record.
func (s *Service) GetClaim(ctx context.Context, claimID string) (domain.Claim, error) {
	claim, err := s.store.GetClaim(ctx, claimID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Claim{}, apperrors.Wrap(apperrors.CodeNotFound,
			fmt.Sprintf("claim %s not found", claimID), err)
	}
	return claim, err
}
