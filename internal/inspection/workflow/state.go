package workflow

import (
	"strings"
	"time"
)

// Context holds the session's current working references. Tool calls that
// operate on a room or elevation resolve against it when their arguments do
// not carry a reference of their own.
type Context struct {
	StructureID string `json:"structureId,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
	ElevationID string `json:"elevationId,omitempty"`
	CurrentView string `json:"currentView,omitempty"`
}

// Merge overlays non-empty fields from patch onto the context. This is the
// shallow context merge SetState performs.
func (c Context) Merge(patch Context) Context {
	if patch.StructureID != "" {
		c.StructureID = patch.StructureID
	}
	if patch.RoomID != "" {
		c.RoomID = patch.RoomID
	}
	if patch.ElevationID != "" {
		c.ElevationID = patch.ElevationID
	}
	if patch.CurrentView != "" {
		c.CurrentView = patch.CurrentView
	}
	return c
}

// ToolError records the most recent tool failure for a session.
type ToolError struct {
	Tool    string            `json:"tool"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	At      time.Time         `json:"at"`
}

// GateSnapshot is the persisted summary of one gate's last run.
type GateSnapshot struct {
	OK       bool `json:"ok"`
	Blockers int  `json:"blockers"`
	Warnings int  `json:"warnings"`
	Infos    int  `json:"infos"`
}

// GateSummary is the persisted summary of the last full gate run.
type GateSummary struct {
	Gates      map[string]GateSnapshot `json:"gates"`
	ComputedAt time.Time               `json:"computedAt"`
}

// Snapshot returns the recorded snapshot for a gate name. ok is false when
// no run has been recorded for that gate.
func (s *GateSummary) Snapshot(gate string) (GateSnapshot, bool) {
	if s == nil || s.Gates == nil {
		return GateSnapshot{}, false
	}
	snap, found := s.Gates[gate]
	return snap, found
}

// State is the workflow record for one inspection session. It is created at
// session start and rewritten (never deleted) on every tool call and gate
// run. Version is an optimistic concurrency token bumped on every write.
type State struct {
	ClaimID         string       `json:"claimId"`
	SessionID       string       `json:"sessionId"`
	Peril           string       `json:"peril"`
	Phase           Phase        `json:"phase"`
	StepID          string       `json:"stepId"`
	Context         Context      `json:"context"`
	LastToolError   *ToolError   `json:"lastToolError,omitempty"`
	LastGateSummary *GateSummary `json:"lastValidatorSummary,omitempty"`
	Version         int64        `json:"version"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// NewState initializes workflow state for a fresh session: first phase,
// that phase's first step, and an interior default view.
func NewState(claimID, sessionID, peril string, now time.Time) State {
	first := FirstPhase()
	return State{
		ClaimID:   strings.TrimSpace(claimID),
		SessionID: strings.TrimSpace(sessionID),
		Peril:     strings.TrimSpace(peril),
		Phase:     first,
		StepID:    FirstStep(first),
		Context:   Context{CurrentView: "interior"},
		Version:   1,
		UpdatedAt: now.UTC(),
	}
}

// StatePatch describes a partial state rewrite. Nil fields are left
// untouched; Context is shallow-merged rather than replaced.
type StatePatch struct {
	Phase       *Phase
	StepID      *string
	Context     *Context
	GateSummary *GateSummary
}

// Apply merges the patch into a copy of the state and bumps its version.
func (s State) Apply(patch StatePatch, now time.Time) State {
	if patch.Phase != nil {
		s.Phase = *patch.Phase
		s.StepID = FirstStep(*patch.Phase)
	}
	if patch.StepID != nil {
		s.StepID = *patch.StepID
	}
	if patch.Context != nil {
		s.Context = s.Context.Merge(*patch.Context)
	}
	if patch.GateSummary != nil {
		s.LastGateSummary = patch.GateSummary
	}
	s.Version++
	s.UpdatedAt = now.UTC()
	return s
}

// RecordToolError stores a tool failure on a copy of the state.
func (s State) RecordToolError(toolErr ToolError, now time.Time) State {
	s.LastToolError = &toolErr
	s.Version++
	s.UpdatedAt = now.UTC()
	return s
}

// RecordGateSummary stores a full gate run summary on a copy of the state.
func (s State) RecordGateSummary(summary GateSummary, now time.Time) State {
	s.LastGateSummary = &summary
	s.Version++
	s.UpdatedAt = now.UTC()
	return s
}

// CanAdvance reports whether the session may move to the next phase.
//
// Advancement is denied in the terminal phase, and denied from review
// onward when the last recorded sketch gate run was not ok: a structurally
// broken sketch must be fixed before the inspection wraps up.
func (s State) CanAdvance() bool {
	if s.Phase.IsTerminal() {
		return false
	}
	if s.Phase == PhaseReview || s.Phase == PhaseExport {
		snap, found := s.LastGateSummary.Snapshot(string(GateNameSketch))
		if !found || !snap.OK {
			return false
		}
	}
	return true
}

// Advance moves a copy of the state to the next phase and its first step.
// It is a no-op when CanAdvance is false.
func (s State) Advance(now time.Time) State {
	if !s.CanAdvance() {
		return s
	}
	next, ok := NextPhase(s.Phase)
	if !ok {
		return s
	}
	s.Phase = next
	s.StepID = FirstStep(next)
	s.Version++
	s.UpdatedAt = now.UTC()
	return s
}
