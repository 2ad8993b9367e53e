package gate

import (
	"context"
	"testing"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

func TestScopeGateUncoveredDamage(t *testing.T) {
	store := &fakeStore{
		damages: []domain.Damage{
			{ID: "dmg-1", SessionID: "sess-1", RoomID: "room-1", DamageType: "hail impact", Severity: domain.DamageSeverityModerate},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWind)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	severity, found := issueBySeverity(result, CodeScopeDamageUncovered)
	if !found || severity != SeverityWarning {
		t.Fatalf("issues = %v", issueCodes(result))
	}
	if len(result.SuggestedMissingScopeItems) != 1 {
		t.Fatalf("suggestions = %v, want 1", result.SuggestedMissingScopeItems)
	}
	// Coverage gaps warn; they never block.
	if !result.OK {
		t.Fatal("uncovered damage must not fail the gate")
	}
}

func TestScopeGateLineItemCoversDamage(t *testing.T) {
	store := &fakeStore{
		damages: []domain.Damage{
			{ID: "dmg-1", SessionID: "sess-1", RoomID: "room-1", DamageType: "hail impact", Severity: domain.DamageSeveritySevere},
		},
		lineItems: []domain.LineItem{
			{ID: "li-1", SessionID: "sess-1", RoomID: "room-1", DamageID: "dmg-1", Category: "Roofing", Provenance: "voice"},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWind)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasIssue(result, CodeScopeDamageUncovered) {
		t.Fatalf("issues = %v, want no coverage warning", issueCodes(result))
	}
}

func TestScopeGateScopeItemCoversDamage(t *testing.T) {
	store := &fakeStore{
		damages: []domain.Damage{
			{ID: "dmg-1", SessionID: "sess-1", RoomID: "room-1", DamageType: "water stain", Severity: domain.DamageSeverityLight},
		},
		scopeItems: []domain.ScopeItem{
			{ID: "sc-1", SessionID: "sess-1", RoomID: "room-1", DamageID: "dmg-1", Category: "Drywall"},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWater)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasIssue(result, CodeScopeDamageUncovered) {
		t.Fatalf("issues = %v, want no coverage warning", issueCodes(result))
	}
}

func TestScopeGateCoverageIsRoomScoped(t *testing.T) {
	// A line item in a different room does not cover the damage.
	store := &fakeStore{
		damages: []domain.Damage{
			{ID: "dmg-1", SessionID: "sess-1", RoomID: "room-1", DamageType: "hail impact", Severity: domain.DamageSeverityModerate},
		},
		lineItems: []domain.LineItem{
			{ID: "li-1", SessionID: "sess-1", RoomID: "room-2", DamageID: "dmg-1", Category: "Roofing", Provenance: "manual"},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWind)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !hasIssue(result, CodeScopeDamageUncovered) {
		t.Fatalf("issues = %v, want a coverage warning", issueCodes(result))
	}
}

func TestScopeGateUnconfirmedDamageIgnored(t *testing.T) {
	store := &fakeStore{
		damages: []domain.Damage{
			{ID: "dmg-1", SessionID: "sess-1", RoomID: "room-1", DamageType: "suspected leak", Severity: domain.DamageSeverityNone},
			{ID: "dmg-2", SessionID: "sess-1", RoomID: "room-1", DamageType: "unknown", Severity: ""},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWater)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasIssue(result, CodeScopeDamageUncovered) {
		t.Fatalf("issues = %v, ruled-out damages need no coverage", issueCodes(result))
	}
}

func TestScopeGateDuplicateLineItems(t *testing.T) {
	store := &fakeStore{
		lineItems: []domain.LineItem{
			{ID: "li-1", SessionID: "sess-1", RoomID: "room-1", DamageID: "dmg-1", Category: "Roofing", Provenance: "voice"},
			{ID: "li-2", SessionID: "sess-1", RoomID: "room-1", DamageID: "dmg-1", Category: "Roofing", Provenance: "voice"},
			// Same category in another room is not a duplicate.
			{ID: "li-3", SessionID: "sess-1", RoomID: "room-2", DamageID: "dmg-1", Category: "Roofing", Provenance: "voice"},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWind)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	duplicates := 0
	for _, issue := range result.Issues {
		if issue.Code == CodeScopeDuplicateLine {
			duplicates++
		}
	}
	if duplicates != 1 {
		t.Fatalf("duplicate issues = %d, want 1 (issues: %v)", duplicates, issueCodes(result))
	}
}

func TestScopeGateProvenanceMissingIsInfo(t *testing.T) {
	store := &fakeStore{
		lineItems: []domain.LineItem{
			{ID: "li-1", SessionID: "sess-1", RoomID: "room-1", Category: "Paint"},
		},
	}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilWind)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	severity, found := issueBySeverity(result, CodeScopeProvenanceMissed)
	if !found || severity != SeverityInfo {
		t.Fatalf("issues = %v", issueCodes(result))
	}
}

func TestScopeGateHailExpectsRoofPlan(t *testing.T) {
	store := &fakeStore{rooms: []domain.Room{squareRoom("room-1", "sess-1")}}

	result, err := NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilHail)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !hasIssue(result, CodeScopeHailRoofExpected) {
		t.Fatalf("issues = %v, want the hail roof warning", issueCodes(result))
	}

	// With a roof plan sketched the warning disappears.
	roof := squareRoom("roof-1", "sess-1")
	roof.ViewType = domain.ViewTypeRoofPlan
	store.rooms = append(store.rooms, roof)

	result, err = NewScopeGate(store).Evaluate(context.Background(), "sess-1", domain.PerilHail)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasIssue(result, CodeScopeHailRoofExpected) {
		t.Fatalf("issues = %v, want no hail roof warning", issueCodes(result))
	}
}
