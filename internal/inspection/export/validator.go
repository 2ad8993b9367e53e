package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// Tolerances for the final numeric audit.
const (
	// acvTolerance allows for rounding drift when comparing ACV to RCV.
	acvTolerance = 0.01
	// mleTolerance allows the M/L/E percentage sum to deviate from 100.
	mleTolerance = 1.0
	// reconcileTolerance bounds the difference between declared and
	// recomputed aggregate totals.
	reconcileTolerance = 0.01
)

// ValidationInput is everything the compliance validator audits.
type ValidationInput struct {
	LineItems []domain.LineItem
	Metadata  XactdocMetadata
	Claim     domain.Claim
}

// ValidationResult is the outcome of the final compliance audit.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Summary  string   `json:"summary"`
}

// ValidateACVvsRCV reports whether an ACV is consistent with its RCV,
// allowing a one-cent rounding tolerance.
func ValidateACVvsRCV(rcv, acv float64) bool {
	return acv <= rcv+acvTolerance
}

// ValidateESXData performs the final bit-exact business-rule check over
// line items and aggregate metadata before a package is emitted. It may
// block an export even when every gate passed.
func ValidateESXData(input ValidationInput) ValidationResult {
	var errs []string
	var warnings []string

	if strings.TrimSpace(input.Metadata.TransactionID) == "" {
		errs = append(errs, "metadata is missing a transaction id")
	}
	if strings.TrimSpace(input.Metadata.ClaimNumber) == "" {
		errs = append(errs, "metadata is missing a claim number")
	}
	if strings.TrimSpace(input.Metadata.LossLocation.Address) == "" {
		errs = append(errs, "metadata is missing a property address")
	}
	if strings.TrimSpace(input.Metadata.DateOfLoss) == "" {
		errs = append(errs, "metadata is missing a date of loss")
	}

	if input.Metadata.PriceListID == DefaultPriceListID {
		warnings = append(warnings, fmt.Sprintf(
			"price list %s is the generic national default; regional pricing is more accurate", DefaultPriceListID))
	}

	for _, coverage := range input.Metadata.Coverages {
		if coverage.Deductible < 0 {
			errs = append(errs, fmt.Sprintf("coverage %s has a negative deductible", coverage.Name))
		}
	}

	peril := strings.ToLower(input.Metadata.Peril)
	if (peril == string(domain.PerilWind) || peril == string(domain.PerilHail)) && input.Metadata.RoofInfo == nil {
		warnings = append(warnings, fmt.Sprintf("peril is %s but no roof info is present", peril))
	}

	var sumRCV, sumACV, sumDepreciation float64
	for i, item := range input.LineItems {
		label := lineItemLabel(i, item)

		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fmt.Sprintf("%s has an empty description", label))
		}
		if item.Quantity < 0 {
			errs = append(errs, fmt.Sprintf("%s has a negative quantity", label))
		}
		if item.RCVTotal < 0 {
			errs = append(errs, fmt.Sprintf("%s has a negative RCV", label))
		}
		if item.ACVTotal < 0 {
			errs = append(errs, fmt.Sprintf("%s has a negative ACV", label))
		}
		if !ValidateACVvsRCV(item.RCVTotal, item.ACVTotal) {
			errs = append(errs, fmt.Sprintf("%s ACV %.2f exceeds RCV %.2f", label, item.ACVTotal, item.RCVTotal))
		}
		if item.DepreciationPct < 0 || item.DepreciationPct > 100 {
			errs = append(errs, fmt.Sprintf("%s depreciation percentage %.2f is outside [0,100]", label, item.DepreciationPct))
		}

		mleSum := item.MaterialPct + item.LaborPct + item.EquipmentPct
		if math.Abs(mleSum-100) > mleTolerance {
			warnings = append(warnings, fmt.Sprintf("%s M/L/E percentages sum to %.2f, expected 100", label, mleSum))
		}

		if strings.TrimSpace(item.TradeCode) == "" && !isGeneralCategory(item.Category) {
			warnings = append(warnings, fmt.Sprintf("%s has no trade code for category %s", label, item.Category))
		}

		sumRCV += item.RCVTotal
		sumACV += item.ACVTotal
		sumDepreciation += item.DepreciationAmount
	}

	// Aggregate reconciliation failures are always errors: a mismatch means
	// the package would be internally inconsistent.
	if math.Abs(round2(sumRCV)-input.Metadata.Summary.TotalRCV) > reconcileTolerance {
		errs = append(errs, fmt.Sprintf("declared RCV total %.2f does not match recomputed %.2f",
			input.Metadata.Summary.TotalRCV, round2(sumRCV)))
	}
	if math.Abs(round2(sumACV)-input.Metadata.Summary.TotalACV) > reconcileTolerance {
		errs = append(errs, fmt.Sprintf("declared ACV total %.2f does not match recomputed %.2f",
			input.Metadata.Summary.TotalACV, round2(sumACV)))
	}
	if math.Abs(round2(sumDepreciation)-input.Metadata.Summary.TotalDepreciation) > reconcileTolerance {
		errs = append(errs, fmt.Sprintf("declared depreciation total %.2f does not match recomputed %.2f",
			input.Metadata.Summary.TotalDepreciation, round2(sumDepreciation)))
	}

	if strings.TrimSpace(input.Metadata.Adjuster.Name) == "" {
		warnings = append(warnings, "adjuster name is missing")
	}

	if errs == nil {
		errs = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	result := ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
	if result.IsValid {
		result.Summary = fmt.Sprintf("Validation passed: %d errors, %d warnings", len(errs), len(warnings))
	} else {
		result.Summary = fmt.Sprintf("Validation failed: %d errors, %d warnings", len(errs), len(warnings))
	}
	return result
}

func lineItemLabel(i int, item domain.LineItem) string {
	if item.ID != "" {
		return "line item " + item.ID
	}
	return fmt.Sprintf("line item #%d", i+1)
}

func isGeneralCategory(category string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(category))
	return normalized == "" || strings.HasPrefix(normalized, "GEN")
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
