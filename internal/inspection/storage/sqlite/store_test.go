package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inspection.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestSessionPutGet(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	expected := domain.InspectionSession{
		ID:        "sess-1",
		ClaimID:   "claim-1",
		Peril:     domain.PerilHail,
		StartedAt: now,
		UpdatedAt: now.Add(10 * time.Minute),
	}
	if err := store.PutSession(context.Background(), expected); err != nil {
		t.Fatalf("put session: %v", err)
	}

	got, err := store.GetSession(context.Background(), expected.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.ID != expected.ID || got.ClaimID != expected.ClaimID || got.Peril != expected.Peril {
		t.Fatalf("session = %+v, want %+v", got, expected)
	}
	if !got.StartedAt.Equal(expected.StartedAt) || !got.UpdatedAt.Equal(expected.UpdatedAt) {
		t.Fatalf("session timestamps = %v/%v, want %v/%v",
			got.StartedAt, got.UpdatedAt, expected.StartedAt, expected.UpdatedAt)
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSession(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClaimRoundTrip(t *testing.T) {
	store := openTestStore(t)
	dateOfLoss := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	expected := domain.Claim{
		ID:              "claim-1",
		ClaimNumber:     "CLM-2026-0042",
		PolicyNumber:    "POL-7788",
		PropertyAddress: "12 Maple Ave, Springfield",
		DateOfLoss:      dateOfLoss,
		Peril:           domain.PerilWind,
		AdjusterName:    "R. Okafor",
		InsuredName:     "T. Nguyen",
		Coverages: []domain.Coverage{
			{Name: "Dwelling", Limit: 250000, Deductible: 1000},
			{Name: "Other Structures", Limit: 25000, Deductible: 500},
		},
		RoofInfo: &domain.RoofInfo{Material: "laminated", AgeYears: 8, SquareCount: 24, Pitch: "6/12"},
	}
	if err := store.PutClaim(context.Background(), expected); err != nil {
		t.Fatalf("put claim: %v", err)
	}

	got, err := store.GetClaim(context.Background(), expected.ID)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if got.ClaimNumber != expected.ClaimNumber || got.PropertyAddress != expected.PropertyAddress {
		t.Fatalf("claim identity = %+v, want %+v", got, expected)
	}
	if !got.DateOfLoss.Equal(expected.DateOfLoss) {
		t.Fatalf("date of loss = %v, want %v", got.DateOfLoss, expected.DateOfLoss)
	}
	if len(got.Coverages) != 2 || got.Coverages[0].Limit != 250000 {
		t.Fatalf("coverages = %+v", got.Coverages)
	}
	if got.RoofInfo == nil || got.RoofInfo.Material != "laminated" {
		t.Fatalf("roof info = %+v", got.RoofInfo)
	}
}

func TestClaimWithoutRoofInfo(t *testing.T) {
	store := openTestStore(t)

	claim := domain.Claim{ID: "claim-no-roof", ClaimNumber: "CLM-1"}
	if err := store.PutClaim(context.Background(), claim); err != nil {
		t.Fatalf("put claim: %v", err)
	}

	got, err := store.GetClaim(context.Background(), claim.ID)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if got.RoofInfo != nil {
		t.Fatalf("roof info = %+v, want nil", got.RoofInfo)
	}
}

func TestWorkflowStateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	state := workflow.NewState("claim-1", "sess-1", "hail", now)
	if err := store.PutWorkflowState(context.Background(), state); err != nil {
		t.Fatalf("put workflow state: %v", err)
	}

	got, err := store.GetWorkflowState(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get workflow state: %v", err)
	}
	if got.Phase != state.Phase || got.StepID != state.StepID || got.Version != 1 {
		t.Fatalf("state = %+v, want %+v", got, state)
	}
	if got.Context.CurrentView != "interior" {
		t.Fatalf("current view = %q, want %q", got.Context.CurrentView, "interior")
	}
	if got.LastToolError != nil || got.LastGateSummary != nil {
		t.Fatalf("expected empty error and summary, got %+v / %+v", got.LastToolError, got.LastGateSummary)
	}
}

func TestWorkflowStatePreservesErrorAndSummary(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	state := workflow.NewState("claim-1", "sess-1", "wind", now)
	state = state.RecordToolError(workflow.ToolError{
		Tool:    "add_opening",
		Code:    "MISSING_CONTEXT",
		Message: "no room in context",
		At:      now,
	}, now)
	state = state.RecordGateSummary(workflow.GateSummary{
		Gates: map[string]workflow.GateSnapshot{
			"sketch": {OK: false, Blockers: 2},
			"scope":  {OK: true, Warnings: 1},
		},
		ComputedAt: now,
	}, now)

	if err := store.PutWorkflowState(context.Background(), state); err != nil {
		t.Fatalf("put workflow state: %v", err)
	}

	got, err := store.GetWorkflowState(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get workflow state: %v", err)
	}
	if got.LastToolError == nil || got.LastToolError.Tool != "add_opening" {
		t.Fatalf("tool error = %+v", got.LastToolError)
	}
	snap, found := got.LastGateSummary.Snapshot("sketch")
	if !found || snap.Blockers != 2 || snap.OK {
		t.Fatalf("sketch snapshot = %+v found=%v", snap, found)
	}
	if got.Version != 3 {
		t.Fatalf("version = %d, want 3", got.Version)
	}
}

func TestUpdateWorkflowStateVersionConflict(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	state := workflow.NewState("claim-1", "sess-1", "hail", now)
	if err := store.PutWorkflowState(context.Background(), state); err != nil {
		t.Fatalf("put workflow state: %v", err)
	}

	first := state.Apply(workflow.StatePatch{Context: &workflow.Context{RoomID: "room-1"}}, now)
	if _, err := store.UpdateWorkflowState(context.Background(), first); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A second writer that read the original state must lose the race.
	stale := state.Apply(workflow.StatePatch{Context: &workflow.Context{RoomID: "room-9"}}, now)
	if _, err := store.UpdateWorkflowState(context.Background(), stale); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}

	got, err := store.GetWorkflowState(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get workflow state: %v", err)
	}
	if got.Context.RoomID != "room-1" {
		t.Fatalf("room id = %q, want %q", got.Context.RoomID, "room-1")
	}
}

func TestUpdateWorkflowStateMissing(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	state := workflow.NewState("claim-1", "sess-gone", "wind", now)
	state.Version = 2
	if _, err := store.UpdateWorkflowState(context.Background(), state); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRoomRoundTripAndDelete(t *testing.T) {
	store := openTestStore(t)

	room := domain.Room{
		ID:        "room-1",
		SessionID: "sess-1",
		Name:      "Kitchen",
		ViewType:  domain.ViewTypeInterior,
		Polygon: []domain.Vertex{
			{X: 0, Y: 0}, {X: 12, Y: 0}, {X: 12, Y: 10}, {X: 0, Y: 10},
		},
		Dimensions: domain.Dimensions{WallHeightFt: 8, LengthFt: 12, WidthFt: 10},
	}
	if err := store.PutRoom(context.Background(), room); err != nil {
		t.Fatalf("put room: %v", err)
	}

	got, err := store.GetRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got.Name != room.Name || got.ViewType != room.ViewType {
		t.Fatalf("room = %+v, want %+v", got, room)
	}
	if len(got.Polygon) != 4 || got.Polygon[2].X != 12 {
		t.Fatalf("polygon = %+v", got.Polygon)
	}
	if got.Dimensions.WallHeightFt != 8 {
		t.Fatalf("wall height = %v, want 8", got.Dimensions.WallHeightFt)
	}

	rooms, err := store.ListRooms(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("rooms = %d, want 1", len(rooms))
	}

	if err := store.DeleteRoom(context.Background(), room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if err := store.DeleteRoom(context.Background(), room.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestOpeningSessionResolution(t *testing.T) {
	store := openTestStore(t)

	room := domain.Room{
		ID:        "room-1",
		SessionID: "sess-1",
		ViewType:  domain.ViewTypeInterior,
		Polygon:   []domain.Vertex{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
	}
	if err := store.PutRoom(context.Background(), room); err != nil {
		t.Fatalf("put room: %v", err)
	}

	// SessionID omitted on purpose: the store resolves it from the room.
	opening := domain.Opening{ID: "open-1", RoomID: "room-1", Kind: "window", WallIndex: 1, WidthFt: 3, HeightFt: 4}
	if err := store.PutOpening(context.Background(), opening); err != nil {
		t.Fatalf("put opening: %v", err)
	}

	bySession, err := store.ListOpeningsForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list openings for session: %v", err)
	}
	if len(bySession) != 1 || bySession[0].SessionID != "sess-1" {
		t.Fatalf("openings = %+v", bySession)
	}

	byRoom, err := store.ListOpeningsForRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("list openings for room: %v", err)
	}
	if len(byRoom) != 1 || byRoom[0].WallIndex != 1 {
		t.Fatalf("openings = %+v", byRoom)
	}

	if err := store.DeleteOpening(context.Background(), "open-1"); err != nil {
		t.Fatalf("delete opening: %v", err)
	}
}

func TestPutOpeningUnknownRoom(t *testing.T) {
	store := openTestStore(t)

	opening := domain.Opening{ID: "open-1", RoomID: "ghost"}
	if err := store.PutOpening(context.Background(), opening); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDamageRoundTrip(t *testing.T) {
	store := openTestStore(t)

	damage := domain.Damage{
		ID:         "dmg-1",
		SessionID:  "sess-1",
		RoomID:     "room-1",
		DamageType: "hail impact",
		Severity:   domain.DamageSeverityModerate,
	}
	if err := store.PutDamage(context.Background(), damage); err != nil {
		t.Fatalf("put damage: %v", err)
	}

	damages, err := store.ListDamagesForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list damages: %v", err)
	}
	if len(damages) != 1 || damages[0].Severity != domain.DamageSeverityModerate {
		t.Fatalf("damages = %+v", damages)
	}

	if err := store.DeleteDamage(context.Background(), "dmg-1"); err != nil {
		t.Fatalf("delete damage: %v", err)
	}
	if err := store.DeleteDamage(context.Background(), "dmg-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLineItemRoundTrip(t *testing.T) {
	store := openTestStore(t)
	age := 7.5

	item := domain.LineItem{
		ID:                 "li-1",
		SessionID:          "sess-1",
		RoomID:             "room-1",
		DamageID:           "dmg-1",
		Category:           "Roofing",
		Description:        "Remove & replace laminated shingles",
		Quantity:           24,
		Unit:               "SQ",
		UnitPrice:          310.50,
		RCVTotal:           7452,
		ACVTotal:           5589,
		MaterialTotal:      3726,
		LaborTotal:         3353.4,
		EquipmentTotal:     372.6,
		MaterialPct:        50,
		LaborPct:           45,
		EquipmentPct:       5,
		DepreciationPct:    25,
		DepreciationAmount: 1863,
		DepreciationType:   domain.DepreciationRecoverable,
		AgeYears:           &age,
		TradeCode:          "RFG",
		Provenance:         "voice",
	}
	if err := store.PutLineItem(context.Background(), item); err != nil {
		t.Fatalf("put line item: %v", err)
	}

	items, err := store.ListLineItems(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list line items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.RCVTotal != item.RCVTotal || got.ACVTotal != item.ACVTotal {
		t.Fatalf("totals = %v/%v, want %v/%v", got.RCVTotal, got.ACVTotal, item.RCVTotal, item.ACVTotal)
	}
	if got.AgeYears == nil || *got.AgeYears != age {
		t.Fatalf("age years = %v, want %v", got.AgeYears, age)
	}
	if got.DepreciationType != domain.DepreciationRecoverable || got.TradeCode != "RFG" {
		t.Fatalf("item = %+v, want %+v", got, item)
	}

	if err := store.DeleteLineItem(context.Background(), "li-1"); err != nil {
		t.Fatalf("delete line item: %v", err)
	}
}

func TestLineItemNilAge(t *testing.T) {
	store := openTestStore(t)

	item := domain.LineItem{ID: "li-1", SessionID: "sess-1", Category: "Paint"}
	if err := store.PutLineItem(context.Background(), item); err != nil {
		t.Fatalf("put line item: %v", err)
	}

	items, err := store.ListLineItems(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list line items: %v", err)
	}
	if len(items) != 1 || items[0].AgeYears != nil {
		t.Fatalf("age years = %v, want nil", items[0].AgeYears)
	}
}

func TestScopeItemRoundTrip(t *testing.T) {
	store := openTestStore(t)

	item := domain.ScopeItem{
		ID:          "sc-1",
		SessionID:   "sess-1",
		RoomID:      "room-1",
		DamageID:    "dmg-1",
		Category:    "Drywall",
		Description: "Patch ceiling water stain",
		Provenance:  "suggestion",
	}
	if err := store.PutScopeItem(context.Background(), item); err != nil {
		t.Fatalf("put scope item: %v", err)
	}

	items, err := store.ListScopeItems(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list scope items: %v", err)
	}
	if len(items) != 1 || items[0].Category != "Drywall" {
		t.Fatalf("items = %+v", items)
	}

	if err := store.DeleteScopeItem(context.Background(), "sc-1"); err != nil {
		t.Fatalf("delete scope item: %v", err)
	}
}

func TestPhotoRoundTrip(t *testing.T) {
	store := openTestStore(t)

	photo := domain.Photo{
		ID:            "ph-1",
		SessionID:     "sess-1",
		RoomID:        "room-1",
		RequestedShot: "roof overview",
		Matched:       true,
		Analysis: &domain.PhotoAnalysis{
			MatchConfidence: 0.92,
			DamageHints:     []string{"hail impact", "granule loss"},
		},
	}
	if err := store.PutPhoto(context.Background(), photo); err != nil {
		t.Fatalf("put photo: %v", err)
	}

	unanalyzed := domain.Photo{ID: "ph-2", SessionID: "sess-1"}
	if err := store.PutPhoto(context.Background(), unanalyzed); err != nil {
		t.Fatalf("put photo: %v", err)
	}

	photos, err := store.ListPhotos(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photos = %d, want 2", len(photos))
	}
	if !photos[0].Matched || photos[0].Analysis == nil {
		t.Fatalf("photo = %+v", photos[0])
	}
	if photos[0].Analysis.MatchConfidence != 0.92 || len(photos[0].Analysis.DamageHints) != 2 {
		t.Fatalf("analysis = %+v", photos[0].Analysis)
	}
	if photos[1].Matched || photos[1].Analysis != nil {
		t.Fatalf("photo = %+v", photos[1])
	}
}

func TestAuditEventsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	events := []storage.AuditEvent{
		{SessionID: "sess-1", Kind: "tool.executed", Severity: "INFO", Message: "add_room ok", Timestamp: now},
		{SessionID: "sess-1", Kind: "gate.blocked", Severity: "WARN", Message: "sketch blocked",
			Metadata: map[string]string{"gate": "sketch"}, Timestamp: now.Add(time.Minute)},
	}
	for _, evt := range events {
		if err := store.AppendAuditEvent(context.Background(), evt); err != nil {
			t.Fatalf("append audit event: %v", err)
		}
	}

	got, err := store.ListAuditEvents(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Kind != "tool.executed" || got[1].Metadata["gate"] != "sketch" {
		t.Fatalf("events = %+v", got)
	}
	if !got[1].Timestamp.Equal(now.Add(time.Minute)) {
		t.Fatalf("timestamp = %v, want %v", got[1].Timestamp, now.Add(time.Minute))
	}
}
