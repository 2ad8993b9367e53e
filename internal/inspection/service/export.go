package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/export"
	"github.com/openclaims/fieldgate/internal/inspection/gate"
	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

// ExportArtifact is the result of a successful export: the package envelope
// plus the gate and compliance evidence it passed.
type ExportArtifact struct {
	Package    export.Package          `json:"package"`
	Validation export.ValidationResult `json:"validation"`
	GateResult gate.Result             `json:"gateResult"`
}

// ExportPackage runs the export gate and compliance validation for a
// session and, when both pass, returns the assembled export package.
func (s *Service) ExportPackage(ctx context.Context, sessionID string) (ExportArtifact, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return ExportArtifact{}, apperrors.Wrap(apperrors.CodeNotFound,
			fmt.Sprintf("session %s not found", sessionID), err)
	}
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("load session: %w", err)
	}
	return s.buildExport(ctx, sessionID, session.Peril)
}

// buildExport is the export pipeline: gate, assemble, validate. A blocker
// at any stage halts the export; warnings ride along in the artifact.
func (s *Service) buildExport(ctx context.Context, sessionID string, peril domain.Peril) (ExportArtifact, error) {
	gateResult, err := s.gates.Export().Evaluate(ctx, sessionID, peril)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("export gate: %w", err)
	}
	if !gateResult.OK {
		s.emitAudit(ctx, storage.AuditEvent{
			SessionID: sessionID,
			Kind:      "export.blocked",
			Severity:  string(audit.SeverityWarn),
			Message:   fmt.Sprintf("export blocked by %d gate issues", gateResult.Summary.Blockers),
		})
		return ExportArtifact{}, apperrors.WithMetadata(apperrors.CodeExportBlocked,
			fmt.Sprintf("export blocked by %d gate issues", gateResult.Summary.Blockers),
			map[string]string{"BlockerCodes": strings.Join(blockerCodes(gateResult), ",")})
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("load session: %w", err)
	}
	claim, err := s.store.GetClaim(ctx, session.ClaimID)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("load claim: %w", err)
	}
	lineItems, err := s.store.ListLineItems(ctx, sessionID)
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("load line items: %w", err)
	}

	pkg, validation, err := export.BuildPackage(claim, session, lineItems, export.MetadataOptions{
		Now:              s.clock,
		NewTransactionID: s.newID,
	})
	if err != nil {
		return ExportArtifact{}, fmt.Errorf("build package: %w", err)
	}
	if !validation.IsValid {
		s.emitAudit(ctx, storage.AuditEvent{
			SessionID: sessionID,
			Kind:      "export.invalid",
			Severity:  string(audit.SeverityWarn),
			Message:   validation.Summary,
		})
		return ExportArtifact{}, apperrors.WithMetadata(apperrors.CodeExportInvalidData,
			validation.Summary,
			map[string]string{"Errors": strings.Join(validation.Errors, "; ")})
	}

	s.emitAudit(ctx, storage.AuditEvent{
		SessionID: sessionID,
		Kind:      "export.completed",
		Severity:  string(audit.SeverityInfo),
		Message:   fmt.Sprintf("export package built with %d line items", len(pkg.LineItems)),
	})
	return ExportArtifact{Package: pkg, Validation: validation, GateResult: gateResult}, nil
}

func blockerCodes(result gate.Result) []string {
	var codes []string
	for _, issue := range result.Issues {
		if issue.Severity == gate.SeverityBlocker {
			codes = append(codes, issue.Code)
		}
	}
	return codes
}
