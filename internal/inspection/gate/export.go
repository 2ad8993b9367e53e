package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
)

// Export gate issue codes.
const (
	CodeExportSessionMissing    = "EXPORT_SESSION_MISSING"
	CodeExportRequiredClaimData = "EXPORT_REQUIRED_CLAIM_DATA"
	CodeExportSketchBlocker     = "EXPORT_SKETCH_BLOCKER"
	CodeExportScopeCoverageWarn = "EXPORT_SCOPE_COVERAGE_WARN"
	// exportPhotoCodePrefix prefixes re-emitted photo-damage issue codes.
	exportPhotoCodePrefix = "EXPORT_PHOTO_"
)

// ExportGate composes the sketch, scope, and photo-damage gates with
// claim-completeness checks. It is the gate that must pass before a package
// is emitted to the external estimating format.
type ExportGate struct {
	store  Store
	sketch *SketchGate
	scope  *ScopeGate
	photo  *PhotoDamageGate
	clock  func() time.Time
}

// NewExportGate creates an export gate and its three sub-gates over the
// given store.
func NewExportGate(store Store) *ExportGate {
	return &ExportGate{
		store:  store,
		sketch: NewSketchGate(store),
		scope:  NewScopeGate(store),
		photo:  NewPhotoDamageGate(store),
		clock:  time.Now,
	}
}

// Evaluate runs the full export readiness check for a session.
//
// A missing session short-circuits with a single blocker. Otherwise the
// three sub-gates run concurrently and their findings are folded into the
// export result. Photo-damage issues are always downgraded to WARNING at
// this layer: photo quality should warn on export, not block it.
func (g *ExportGate) Evaluate(ctx context.Context, sessionID string, peril domain.Peril) (Result, error) {
	session, err := g.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewResult(GateExport, []Issue{{
				Severity: SeverityBlocker,
				Code:     CodeExportSessionMissing,
				Message:  fmt.Sprintf("inspection session %s was not found", sessionID),
			}}, g.clock()), nil
		}
		return Result{}, fmt.Errorf("get session: %w", err)
	}
	if peril == "" {
		peril = session.Peril
	}

	var issues []Issue

	claim, err := g.store.GetClaim(ctx, session.ClaimID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("get claim: %w", err)
	}
	if missing := missingClaimData(claim, err); len(missing) > 0 {
		issues = append(issues, Issue{
			Severity: SeverityBlocker,
			Code:     CodeExportRequiredClaimData,
			Message:  fmt.Sprintf("claim is missing required data: %s", strings.Join(missing, ", ")),
			Entity:   &EntityRef{Type: "claim", ID: session.ClaimID},
			Details:  map[string]string{"missing": strings.Join(missing, ",")},
		})
	}

	sub, err := g.evaluateSubGates(ctx, sessionID, peril)
	if err != nil {
		return Result{}, err
	}

	if !sub.sketch.OK {
		issues = append(issues, Issue{
			Severity: SeverityBlocker,
			Code:     CodeExportSketchBlocker,
			Message: fmt.Sprintf("sketch gate reported %d blockers; the sketch must be structurally valid before export",
				sub.sketch.Summary.Blockers),
			Details: map[string]string{"sketchBlockers": fmt.Sprintf("%d", sub.sketch.Summary.Blockers)},
		})
	}

	for _, issue := range sub.scope.Issues {
		if issue.Code != CodeScopeDamageUncovered {
			continue
		}
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			Code:       CodeExportScopeCoverageWarn,
			Message:    issue.Message,
			Entity:     issue.Entity,
			Suggestion: issue.Suggestion,
		})
	}

	for _, issue := range sub.photo.Issues {
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			Code:       exportPhotoCodePrefix + issue.Code,
			Message:    issue.Message,
			Entity:     issue.Entity,
			Details:    issue.Details,
			Suggestion: issue.Suggestion,
		})
	}

	return NewResult(GateExport, issues, g.clock()), nil
}

type subGateResults struct {
	sketch Result
	scope  Result
	photo  Result
}

// evaluateSubGates fans the three sub-gates out concurrently. They read
// disjoint or overlapping read-only views and perform no writes, so there is
// no ordering dependency between them.
func (g *ExportGate) evaluateSubGates(ctx context.Context, sessionID string, peril domain.Peril) (subGateResults, error) {
	var results subGateResults
	errs := make(chan error, 3)

	go func() {
		var err error
		results.sketch, err = g.sketch.Evaluate(ctx, sessionID)
		errs <- err
	}()
	go func() {
		var err error
		results.scope, err = g.scope.Evaluate(ctx, sessionID, peril)
		errs <- err
	}()
	go func() {
		var err error
		results.photo, err = g.photo.Evaluate(ctx, sessionID)
		errs <- err
	}()

	var firstErr error
	for i := 0; i < 3; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return subGateResults{}, fmt.Errorf("evaluate sub-gates: %w", firstErr)
	}
	return results, nil
}

func missingClaimData(claim domain.Claim, getErr error) []string {
	if errors.Is(getErr, storage.ErrNotFound) {
		return []string{"claim record"}
	}
	var missing []string
	if strings.TrimSpace(claim.ClaimNumber) == "" {
		missing = append(missing, "claim number")
	}
	if strings.TrimSpace(claim.PropertyAddress) == "" {
		missing = append(missing, "property address")
	}
	return missing
}
