package pricing

import (
	"math"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// DepreciationInput describes one line item for depreciation resolution.
type DepreciationInput struct {
	TotalPrice float64
	// Age in years. Nil when the item could not be dated.
	Age *float64
	// LifeExpectancy overrides the table lookup when positive.
	LifeExpectancy   float64
	Category         string
	Description      string
	DepreciationType domain.DepreciationType
}

// DepreciationResult is the resolved depreciation for one line item.
type DepreciationResult struct {
	LifeExpectancy float64
	Percentage     float64
	Amount         float64
}

// CalculateDepreciation computes age-based straight-line depreciation.
//
// "Paid When Incurred" items are never depreciated. Items without an age,
// or whose life expectancy resolves to zero, keep their resolved life
// expectancy but take zero depreciation; this guards both undated items and
// divide-by-zero. The percentage is capped at 100.
func CalculateDepreciation(input DepreciationInput) DepreciationResult {
	if input.DepreciationType == domain.DepreciationPaidWhenIncurred {
		return DepreciationResult{}
	}

	life := input.LifeExpectancy
	if life <= 0 {
		life = LookupLifeExpectancy(input.Category, input.Description)
	}

	if input.Age == nil || life <= 0 {
		return DepreciationResult{LifeExpectancy: life}
	}

	pct := math.Min(100, *input.Age/life*100)
	pct = round2(pct)
	amount := round2(input.TotalPrice * pct / 100)

	return DepreciationResult{
		LifeExpectancy: life,
		Percentage:     pct,
		Amount:         amount,
	}
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
