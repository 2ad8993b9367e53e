package workflow

// Phase is a step in the fixed, ordered inspection workflow. The phase
// determines which tools are callable.
type Phase string

const (
	// PhaseBriefing covers claim review and context setup before capture.
	PhaseBriefing Phase = "briefing"
	// PhaseSketch covers room and opening capture.
	PhaseSketch Phase = "sketch"
	// PhaseScope covers damage recording and estimate line entry.
	PhaseScope Phase = "scope"
	// PhasePhotos covers photo capture and confirmation.
	PhasePhotos Phase = "photos"
	// PhaseReview covers final data review and fix-ups.
	PhaseReview Phase = "review"
	// PhaseExport is the terminal phase; only packaging tools run here.
	PhaseExport Phase = "export"
)

// phaseOrder is the fixed linear phase sequence. No phase is skipped or
// revisited except via explicit state edits.
var phaseOrder = []Phase{
	PhaseBriefing,
	PhaseSketch,
	PhaseScope,
	PhasePhotos,
	PhaseReview,
	PhaseExport,
}

// phaseSteps maps each phase to its ordered step identifiers. Entering a
// phase resets the session to that phase's first step.
var phaseSteps = map[Phase][]string{
	PhaseBriefing: {"review_claim", "confirm_peril", "set_context"},
	PhaseSketch:   {"sketch_rooms", "place_openings"},
	PhaseScope:    {"record_damages", "enter_line_items"},
	PhasePhotos:   {"capture_photos", "confirm_photos"},
	PhaseReview:   {"review_gates", "resolve_issues"},
	PhaseExport:   {"package_export"},
}

// Phases returns the fixed ordered phase sequence.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// FirstPhase returns the phase every new session starts in.
func FirstPhase() Phase {
	return phaseOrder[0]
}

// FirstStep returns the first step of the given phase, or "" for an unknown
// phase.
func FirstStep(phase Phase) string {
	steps := phaseSteps[phase]
	if len(steps) == 0 {
		return ""
	}
	return steps[0]
}

// NextPhase returns the phase following the given one. ok is false when the
// phase is terminal or unknown.
func NextPhase(phase Phase) (Phase, bool) {
	for i, p := range phaseOrder {
		if p == phase {
			if i+1 >= len(phaseOrder) {
				return "", false
			}
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether the phase is the last one in the sequence.
func (p Phase) IsTerminal() bool {
	return p == phaseOrder[len(phaseOrder)-1]
}

// Valid reports whether the phase is part of the workflow sequence.
func (p Phase) Valid() bool {
	for _, known := range phaseOrder {
		if p == known {
			return true
		}
	}
	return false
}
