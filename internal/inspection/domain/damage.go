package domain

// DamageSeverity grades an observed damage.
type DamageSeverity string

const (
	DamageSeverityNone     DamageSeverity = "none"
	DamageSeverityLight    DamageSeverity = "light"
	DamageSeverityModerate DamageSeverity = "moderate"
	DamageSeveritySevere   DamageSeverity = "severe"
)

// Damage records an observed damage in a room.
type Damage struct {
	ID         string
	SessionID  string
	RoomID     string
	DamageType string
	Severity   DamageSeverity
}

// Confirmed reports whether the damage was confirmed by the inspector.
// A severity of "none" means the suspected damage was ruled out.
func (d Damage) Confirmed() bool {
	return d.Severity != "" && d.Severity != DamageSeverityNone
}
