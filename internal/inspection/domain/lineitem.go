package domain

// DepreciationType selects how depreciation applies to a line item.
type DepreciationType string

const (
	// DepreciationRecoverable withholds depreciation until repairs complete.
	DepreciationRecoverable DepreciationType = "Recoverable"
	// DepreciationNonRecoverable permanently reduces the payout.
	DepreciationNonRecoverable DepreciationType = "Non-Recoverable"
	// DepreciationPaidWhenIncurred defers the item entirely; no depreciation
	// is ever taken against it.
	DepreciationPaidWhenIncurred DepreciationType = "Paid When Incurred"
)

// LineItem is one estimate entry tied to a room and, usually, a damage.
type LineItem struct {
	ID          string
	SessionID   string
	RoomID      string
	DamageID    string
	Category    string
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64

	RCVTotal       float64
	ACVTotal       float64
	MaterialTotal  float64
	LaborTotal     float64
	EquipmentTotal float64

	MaterialPct  float64
	LaborPct     float64
	EquipmentPct float64

	DepreciationPct    float64
	DepreciationAmount float64
	DepreciationType   DepreciationType
	AgeYears           *float64 // nil when the item's age is unknown

	TradeCode  string
	Provenance string // how the item entered the estimate (voice, manual, suggestion)
}

// ScopeItem is a planned repair noted during scoping before it is priced
// into a line item.
type ScopeItem struct {
	ID          string
	SessionID   string
	RoomID      string
	DamageID    string
	Category    string
	Description string
	Provenance  string
}
