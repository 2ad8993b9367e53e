package workflow

// GateName identifies a gate in persisted summaries. The values mirror the
// gate engine's names without importing it; workflow state is a passive
// record of gate outcomes, not an evaluator.
type GateName string

const (
	GateNameSketch      GateName = "sketch"
	GateNameScope       GateName = "scope"
	GateNamePhotoDamage GateName = "photoDamage"
	GateNameExport      GateName = "export"
)
