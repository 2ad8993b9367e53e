package pricing

import (
	"context"
	"math"
	"strings"
)

// MLESource identifies which resolution tier produced an M/L/E split.
type MLESource string

const (
	// MLESourceRegional means the split came from a regional price lookup.
	MLESourceRegional MLESource = "regional"
	// MLESourceCategory means the split came from the trade category table.
	MLESourceCategory MLESource = "category"
	// MLESourceFallback means the general fallback entry was used.
	MLESourceFallback MLESource = "fallback"
)

// MLESplit is a material/labor/equipment percentage breakdown. Splits
// produced by ResolveMLE always sum to 100 by construction.
type MLESplit struct {
	MaterialPct  float64   `json:"materialPct"`
	LaborPct     float64   `json:"laborPct"`
	EquipmentPct float64   `json:"equipmentPct"`
	Source       MLESource `json:"source"`
}

// RegionalPrice holds the component costs a regional price list reports for
// one activity code.
type RegionalPrice struct {
	MaterialCost float64
	LaborCost    float64
}

// RegionalPriceLookup fetches component costs from an external price list.
// The lookup is best-effort; resolution falls through on any failure.
type RegionalPriceLookup func(ctx context.Context, xactCode, priceListID, activityType string) (RegionalPrice, error)

// MLEInput describes one line item for split resolution.
type MLEInput struct {
	XactCode         string
	Category         string
	PriceListID      string
	ActivityType     string
	GetRegionalPrice RegionalPriceLookup
}

// categoryMLE maps 3-letter trade prefixes to standard splits.
var categoryMLE = map[string]MLESplit{
	"RFG": {MaterialPct: 55, LaborPct: 40, EquipmentPct: 5},
	"DRY": {MaterialPct: 40, LaborPct: 60, EquipmentPct: 0},
	"PNT": {MaterialPct: 25, LaborPct: 75, EquipmentPct: 0},
	"FCC": {MaterialPct: 60, LaborPct: 40, EquipmentPct: 0},
	"FCW": {MaterialPct: 65, LaborPct: 35, EquipmentPct: 0},
	"SDG": {MaterialPct: 50, LaborPct: 45, EquipmentPct: 5},
	"SFG": {MaterialPct: 55, LaborPct: 45, EquipmentPct: 0},
	"ELE": {MaterialPct: 45, LaborPct: 55, EquipmentPct: 0},
	"PLM": {MaterialPct: 50, LaborPct: 50, EquipmentPct: 0},
	"HVC": {MaterialPct: 60, LaborPct: 35, EquipmentPct: 5},
	"INS": {MaterialPct: 55, LaborPct: 45, EquipmentPct: 0},
	"CAB": {MaterialPct: 70, LaborPct: 30, EquipmentPct: 0},
	"WDW": {MaterialPct: 65, LaborPct: 35, EquipmentPct: 0},
	"DOR": {MaterialPct: 60, LaborPct: 40, EquipmentPct: 0},
	"FEN": {MaterialPct: 55, LaborPct: 40, EquipmentPct: 5},
	"DMO": {MaterialPct: 0, LaborPct: 85, EquipmentPct: 15},
	"GEN": {MaterialPct: 50, LaborPct: 45, EquipmentPct: 5},
}

// ResolveMLE resolves a line item's M/L/E split through three tiers:
// regional price lookup, trade category table, and the general fallback.
// A regional lookup failure never aborts resolution; it falls through to
// the next tier.
func ResolveMLE(ctx context.Context, input MLEInput) MLESplit {
	if input.GetRegionalPrice != nil {
		if split, ok := resolveRegional(ctx, input); ok {
			return split
		}
	}

	if code, found := tradeCodeFor(input.Category); found {
		split := categoryMLE[code]
		split.Source = MLESourceCategory
		return split
	}

	fallback := categoryMLE["GEN"]
	fallback.Source = MLESourceFallback
	return fallback
}

// resolveRegional attempts the tier-1 regional lookup. Any error or panic in
// the collaborator is swallowed; callers fall through to tier 2.
func resolveRegional(ctx context.Context, input MLEInput) (split MLESplit, ok bool) {
	defer func() {
		if recover() != nil {
			split, ok = MLESplit{}, false
		}
	}()

	price, err := input.GetRegionalPrice(ctx, input.XactCode, input.PriceListID, input.ActivityType)
	if err != nil {
		return MLESplit{}, false
	}
	total := price.MaterialCost + price.LaborCost
	if total <= 0 {
		return MLESplit{}, false
	}

	materialPct := round2(price.MaterialCost / total * 100)
	// Labor takes the remainder so the split sums to exactly 100.
	return MLESplit{
		MaterialPct:  materialPct,
		LaborPct:     round2(100 - materialPct),
		EquipmentPct: 0,
		Source:       MLESourceRegional,
	}, true
}

// ValidateMLESplit reports whether the three percentages sum to within 1 of
// 100.
func ValidateMLESplit(split MLESplit) bool {
	sum := split.MaterialPct + split.LaborPct + split.EquipmentPct
	return math.Abs(sum-100) <= 1
}

// MLEAmounts holds per-component currency amounts for one line item.
type MLEAmounts struct {
	Material  float64
	Labor     float64
	Equipment float64
}

// ApplyMLEToPrice multiplies a total price by each split percentage. Each
// component rounds to 2 decimals independently, so the component sum may
// drift from the total by a cent.
func ApplyMLEToPrice(totalPrice float64, split MLESplit) MLEAmounts {
	return MLEAmounts{
		Material:  round2(totalPrice * split.MaterialPct / 100),
		Labor:     round2(totalPrice * split.LaborPct / 100),
		Equipment: round2(totalPrice * split.EquipmentPct / 100),
	}
}

// categoryTradeCodes maps human category names to 3-letter trade codes.
// Categories already expressed as a code resolve by prefix instead.
var categoryTradeCodes = map[string]string{
	"roofing":    "RFG",
	"drywall":    "DRY",
	"paint":      "PNT",
	"painting":   "PNT",
	"carpet":     "FCC",
	"flooring":   "FCW",
	"siding":     "SDG",
	"gutters":    "SFG",
	"electrical": "ELE",
	"plumbing":   "PLM",
	"hvac":       "HVC",
	"insulation": "INS",
	"cabinets":   "CAB",
	"cabinetry":  "CAB",
	"windows":    "WDW",
	"doors":      "DOR",
	"fencing":    "FEN",
	"demolition": "DMO",
	"general":    "GEN",
}

// TradeCode resolves the 3-letter trade code for a line item category.
// Categories without a table entry resolve to the general code.
func TradeCode(category string) string {
	if code, found := tradeCodeFor(category); found {
		return code
	}
	return "GEN"
}

// tradeCodeFor resolves a category to its trade code, reporting whether the
// category actually maps to one. Unknown and empty categories do not, so
// split resolution can tell a table hit apart from the general fallback.
func tradeCodeFor(category string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(category))
	if name == "" {
		return "", false
	}
	if code, found := categoryTradeCodes[name]; found {
		return code, true
	}
	prefix := strings.ToUpper(name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if _, found := categoryMLE[prefix]; found {
		return prefix, true
	}
	return "", false
}
