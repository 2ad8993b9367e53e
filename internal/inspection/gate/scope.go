package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// Scope gate issue codes.
const (
	CodeScopeDamageUncovered  = "SCOPE_DAMAGE_UNCOVERED"
	CodeScopeDuplicateLine    = "SCOPE_DUPLICATE_LINE"
	CodeScopeProvenanceMissed = "SCOPE_PROVENANCE_MISSING"
	CodeScopeHailRoofExpected = "SCOPE_HAIL_ROOF_EXPECTED"
)

// ScopeGate checks that every confirmed damage is covered by scope, that no
// line items duplicate each other, and that peril-specific expectations hold.
type ScopeGate struct {
	store Store
	clock func() time.Time
}

// NewScopeGate creates a scope gate backed by the given store.
func NewScopeGate(store Store) *ScopeGate {
	return &ScopeGate{store: store, clock: time.Now}
}

// Evaluate inspects damages, line items, and scope items for the session.
func (g *ScopeGate) Evaluate(ctx context.Context, sessionID string, peril domain.Peril) (Result, error) {
	damages, err := g.store.ListDamagesForSession(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list damages: %w", err)
	}
	lineItems, err := g.store.ListLineItems(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list line items: %w", err)
	}
	scopeItems, err := g.store.ListScopeItems(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list scope items: %w", err)
	}
	rooms, err := g.store.ListRooms(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list rooms: %w", err)
	}

	var issues []Issue
	var suggestions []string

	// Coverage is linkage by damage identifier within the same room, never
	// by text matching.
	type coverageKey struct {
		roomID   string
		damageID string
	}
	covered := make(map[coverageKey]bool)
	for _, item := range lineItems {
		if item.DamageID != "" {
			covered[coverageKey{item.RoomID, item.DamageID}] = true
		}
	}
	for _, item := range scopeItems {
		if item.DamageID != "" {
			covered[coverageKey{item.RoomID, item.DamageID}] = true
		}
	}

	for _, damage := range damages {
		if !damage.Confirmed() {
			continue
		}
		if covered[coverageKey{damage.RoomID, damage.ID}] {
			continue
		}
		suggestion := fmt.Sprintf("add a scope or line item for %s damage %s", damage.DamageType, damage.ID)
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeScopeDamageUncovered,
			Message: fmt.Sprintf("confirmed %s damage %s in room %s has no scope or line item",
				damage.DamageType, damage.ID, damage.RoomID),
			Entity:     &EntityRef{Type: "damage", ID: damage.ID, Name: damage.DamageType},
			Suggestion: suggestion,
		})
		suggestions = append(suggestions, suggestion)
	}

	type dupKey struct {
		category string
		roomID   string
		damageID string
	}
	seen := make(map[dupKey]bool)
	for _, item := range lineItems {
		key := dupKey{item.Category, item.RoomID, item.DamageID}
		if seen[key] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Code:     CodeScopeDuplicateLine,
				Message: fmt.Sprintf("line item %s repeats category %s for damage %s in room %s",
					item.ID, item.Category, item.DamageID, item.RoomID),
				Entity: &EntityRef{Type: "lineItem", ID: item.ID, Name: item.Description},
			})
		}
		seen[key] = true

		if item.Provenance == "" {
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Code:     CodeScopeProvenanceMissed,
				Message:  fmt.Sprintf("line item %s has no recorded provenance", item.ID),
				Entity:   &EntityRef{Type: "lineItem", ID: item.ID, Name: item.Description},
			})
		}
	}

	if peril == domain.PerilHail {
		hasRoofPlan := false
		for _, room := range rooms {
			if room.ViewType == domain.ViewTypeRoofPlan {
				hasRoofPlan = true
				break
			}
		}
		if !hasRoofPlan {
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				Code:       CodeScopeHailRoofExpected,
				Message:    "hail claim has no roof plan sketched",
				Suggestion: "sketch a roof plan; hail claims almost always involve roof damage",
			})
		}
	}

	result := NewResult(GateScope, issues, g.clock())
	result.SuggestedMissingScopeItems = suggestions
	return result, nil
}
