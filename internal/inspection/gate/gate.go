package gate

import (
	"time"
)

// Gate names the four inspection gates.
type Gate string

const (
	GateSketch      Gate = "sketch"
	GateScope       Gate = "scope"
	GatePhotoDamage Gate = "photoDamage"
	GateExport      Gate = "export"
)

// Severity grades a gate issue. Only blockers halt progression or export.
type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// EntityRef points an issue at the entity that triggered it.
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Issue is one severity-tagged finding from a gate run. Issues are values
// produced fresh on every run; they are aggregated, never persisted
// individually.
type Issue struct {
	Severity   Severity          `json:"severity"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Entity     *EntityRef        `json:"entity,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
}

// Summary is the tri-count of issue severities.
type Summary struct {
	Blockers int `json:"blockers"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Result is the outcome of one gate evaluation. OK and Summary are pure
// functions of Issues.
type Result struct {
	Gate                       Gate      `json:"gate"`
	OK                         bool      `json:"ok"`
	Issues                     []Issue   `json:"issues"`
	Summary                    Summary   `json:"summary"`
	ComputedAt                 time.Time `json:"computedAt"`
	SuggestedMissingScopeItems []string  `json:"suggestedMissingScopeItems,omitempty"`
}

// Summarize derives the summary tri-count from an issue list.
func Summarize(issues []Issue) Summary {
	var s Summary
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityBlocker:
			s.Blockers++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Infos++
		}
	}
	return s
}

// NewResult builds a Result for a gate from its issue list. The result is
// ok when the issue list contains no blockers.
func NewResult(gate Gate, issues []Issue, computedAt time.Time) Result {
	summary := Summarize(issues)
	if issues == nil {
		issues = []Issue{}
	}
	return Result{
		Gate:       gate,
		OK:         summary.Blockers == 0,
		Issues:     issues,
		Summary:    summary,
		ComputedAt: computedAt.UTC(),
	}
}
