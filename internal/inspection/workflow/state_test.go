package workflow

import (
	"testing"
	"time"
)

func TestNewState(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	state := NewState(" claim-1 ", "sess-1", "hail", now)

	if state.ClaimID != "claim-1" {
		t.Fatalf("claim id = %q, want trimmed claim-1", state.ClaimID)
	}
	if state.Phase != PhaseBriefing {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseBriefing)
	}
	if state.StepID != FirstStep(PhaseBriefing) {
		t.Fatalf("step = %q, want %q", state.StepID, FirstStep(PhaseBriefing))
	}
	if state.Context.CurrentView != "interior" {
		t.Fatalf("current view = %q, want interior", state.Context.CurrentView)
	}
	if state.Version != 1 {
		t.Fatalf("version = %d, want 1", state.Version)
	}
}

func TestContextMergeShallow(t *testing.T) {
	base := Context{RoomID: "room-1", CurrentView: "interior"}
	merged := base.Merge(Context{ElevationID: "elev-1"})

	if merged.RoomID != "room-1" {
		t.Fatalf("room id = %q, want the existing value kept", merged.RoomID)
	}
	if merged.ElevationID != "elev-1" {
		t.Fatalf("elevation id = %q, want elev-1", merged.ElevationID)
	}

	overridden := merged.Merge(Context{RoomID: "room-2"})
	if overridden.RoomID != "room-2" {
		t.Fatalf("room id = %q, want room-2", overridden.RoomID)
	}
}

func TestApplyBumpsVersion(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	state := NewState("claim-1", "sess-1", "hail", now)

	next := PhaseSketch
	applied := state.Apply(StatePatch{Phase: &next}, now.Add(time.Minute))
	if applied.Phase != PhaseSketch {
		t.Fatalf("phase = %s, want %s", applied.Phase, PhaseSketch)
	}
	if applied.StepID != FirstStep(PhaseSketch) {
		t.Fatalf("step = %q, want the phase's first step", applied.StepID)
	}
	if applied.Version != 2 {
		t.Fatalf("version = %d, want 2", applied.Version)
	}
	// The original state value is untouched.
	if state.Phase != PhaseBriefing || state.Version != 1 {
		t.Fatalf("source state mutated: %+v", state)
	}
}

func TestApplyGateSummary(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	state := NewState("claim-1", "sess-1", "hail", now)

	summary := GateSummary{
		Gates:      map[string]GateSnapshot{"sketch": {OK: true}},
		ComputedAt: now,
	}
	applied := state.Apply(StatePatch{GateSummary: &summary}, now)
	snap, found := applied.LastGateSummary.Snapshot("sketch")
	if !found || !snap.OK {
		t.Fatalf("snapshot = %+v found=%v", snap, found)
	}
}

func TestCanAdvance(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		phase   Phase
		summary *GateSummary
		want    bool
	}{
		{"briefing without gates", PhaseBriefing, nil, true},
		{"photos without gates", PhasePhotos, nil, true},
		{"review without gates", PhaseReview, nil, false},
		{"review with failing sketch", PhaseReview, &GateSummary{
			Gates: map[string]GateSnapshot{"sketch": {OK: false, Blockers: 1}},
		}, false},
		{"review with passing sketch", PhaseReview, &GateSummary{
			Gates: map[string]GateSnapshot{"sketch": {OK: true}},
		}, true},
		{"export is terminal", PhaseExport, &GateSummary{
			Gates: map[string]GateSnapshot{"sketch": {OK: true}},
		}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := NewState("claim-1", "sess-1", "hail", now)
			state.Phase = tc.phase
			state.LastGateSummary = tc.summary
			if got := state.CanAdvance(); got != tc.want {
				t.Fatalf("CanAdvance() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	state := NewState("claim-1", "sess-1", "hail", now)

	advanced := state.Advance(now.Add(time.Minute))
	if advanced.Phase != PhaseSketch {
		t.Fatalf("phase = %s, want %s", advanced.Phase, PhaseSketch)
	}
	if advanced.Version != 2 {
		t.Fatalf("version = %d, want 2", advanced.Version)
	}

	// A denied advance is a no-op.
	blocked := state
	blocked.Phase = PhaseReview
	unchanged := blocked.Advance(now)
	if unchanged.Phase != PhaseReview || unchanged.Version != blocked.Version {
		t.Fatalf("blocked advance changed state: %+v", unchanged)
	}
}

func TestRecordToolError(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	state := NewState("claim-1", "sess-1", "hail", now)

	recorded := state.RecordToolError(ToolError{
		Tool:    ToolAddDamage,
		Code:    "TOOL_NOT_ALLOWED",
		Message: "not now",
		At:      now,
	}, now)
	if recorded.LastToolError == nil || recorded.LastToolError.Tool != ToolAddDamage {
		t.Fatalf("tool error = %+v", recorded.LastToolError)
	}
	if recorded.Version != 2 {
		t.Fatalf("version = %d, want 2", recorded.Version)
	}
}
