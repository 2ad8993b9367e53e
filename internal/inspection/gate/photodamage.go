package gate

import (
	"context"
	"fmt"
	"time"
)

// PhotoDamage gate issue codes.
const (
	CodePhotoAnalysisMissing  = "PHOTO_ANALYSIS_MISSING"
	CodePhotoRoomUnassociated = "PHOTO_ROOM_UNASSOCIATED"
	CodePhotoConfidenceGate   = "PHOTO_CONFIDENCE_GATE"
	CodePhotoDamageMappingLow = "PHOTO_DAMAGE_MAPPING_LOW"
)

// confidenceConfirmThreshold is the analysis confidence above which a photo
// is expected to be human-confirmed. Confidence never auto-confirms.
const confidenceConfirmThreshold = 0.8

// PhotoDamageGate cross-checks captured photos against their analysis
// results and the session's damage records.
type PhotoDamageGate struct {
	store Store
	clock func() time.Time
}

// NewPhotoDamageGate creates a photo-damage gate backed by the given store.
func NewPhotoDamageGate(store Store) *PhotoDamageGate {
	return &PhotoDamageGate{store: store, clock: time.Now}
}

// Evaluate inspects every photo in the session.
func (g *PhotoDamageGate) Evaluate(ctx context.Context, sessionID string) (Result, error) {
	photos, err := g.store.ListPhotos(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list photos: %w", err)
	}
	damages, err := g.store.ListDamagesForSession(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list damages: %w", err)
	}

	var issues []Issue

	analyzed := 0
	hinted := false
	for _, photo := range photos {
		if photo.Analysis != nil {
			analyzed++
			if len(photo.Analysis.DamageHints) > 0 {
				hinted = true
			}
		}
	}

	if len(photos) > 0 && analyzed == 0 {
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			Code:       CodePhotoAnalysisMissing,
			Message:    fmt.Sprintf("%d photos captured but none have analysis results", len(photos)),
			Suggestion: "run photo analysis before relying on photo coverage",
		})
	}

	for _, photo := range photos {
		entity := &EntityRef{Type: "photo", ID: photo.ID, Name: photo.RequestedShot}

		if photo.RoomID == "" {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				Code:       CodePhotoRoomUnassociated,
				Message:    fmt.Sprintf("photo %s is not associated with a room", photo.ID),
				Entity:     entity,
				Suggestion: "assign the photo to the room it documents",
			})
		}

		if photo.Analysis != nil && photo.Analysis.MatchConfidence > confidenceConfirmThreshold && !photo.Matched {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Code:     CodePhotoConfidenceGate,
				Message: fmt.Sprintf("photo %s matches its requested shot with confidence %.2f but is unconfirmed",
					photo.ID, photo.Analysis.MatchConfidence),
				Entity:     entity,
				Details:    map[string]string{"matchConfidence": fmt.Sprintf("%.2f", photo.Analysis.MatchConfidence)},
				Suggestion: "confirm the photo against its requested shot",
			})
		}
	}

	if hinted && len(damages) == 0 {
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			Code:       CodePhotoDamageMappingLow,
			Message:    "photo analysis found visible damage but the session has no damage records",
			Suggestion: "record the damages the photos show, or dismiss the analysis hints",
		})
	}

	return NewResult(GatePhotoDamage, issues, g.clock()), nil
}
