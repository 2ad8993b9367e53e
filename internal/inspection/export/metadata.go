package export

import (
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/platform/id"
)

// DefaultPriceListID is the generic national price list used when no
// regional list was selected. Exports against it are flagged as warnings.
const DefaultPriceListID = "USNATL"

// Field names and nesting in these structs must stay exactly as emitted;
// the downstream estimating format matches on them.

// LossLocation is the property address block of the export header.
type LossLocation struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

// CoverageInfo is one coverage line in the export header.
type CoverageInfo struct {
	Name       string  `json:"name"`
	Limit      float64 `json:"limit"`
	Deductible float64 `json:"deductible"`
}

// RoofSummary is the roof block of the export header.
type RoofSummary struct {
	Material    string  `json:"material"`
	AgeYears    float64 `json:"ageYears"`
	SquareCount float64 `json:"squareCount"`
	Pitch       string  `json:"pitch,omitempty"`
}

// PartyInfo identifies an adjuster, inspector, or insured party.
type PartyInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// SummaryTotals carries the aggregate line item totals the validator
// independently recomputes.
type SummaryTotals struct {
	TotalRCV          float64 `json:"totalRCV"`
	TotalACV          float64 `json:"totalACV"`
	TotalDepreciation float64 `json:"totalDepreciation"`
	LineItemCount     int     `json:"lineItemCount"`
}

// Supplemental is the optional supplement block of the export header.
type Supplemental struct {
	Reason        string `json:"reason"`
	PriorEstimate string `json:"priorEstimate,omitempty"`
}

// XactdocMetadata is the aggregate export header built once per export
// attempt from claim, session, and computed line item totals.
type XactdocMetadata struct {
	TransactionID    string         `json:"transactionId"`
	ClaimNumber      string         `json:"claimNumber"`
	PolicyNumber     string         `json:"policyNumber"`
	Peril            string         `json:"peril"`
	DateOfLoss       string         `json:"dateOfLoss"`
	LossLocation     LossLocation   `json:"lossLocation"`
	Coverages        []CoverageInfo `json:"coverages"`
	RoofInfo         *RoofSummary   `json:"roofInfo,omitempty"`
	Adjuster         PartyInfo      `json:"adjuster"`
	Insured          PartyInfo      `json:"insured"`
	PriceListID      string         `json:"priceListId"`
	DepreciationType string         `json:"depreciationType"`
	Summary          SummaryTotals  `json:"summary"`
	Supplemental     *Supplemental  `json:"supplemental,omitempty"`
	ExportedAt       string         `json:"exportedAt"`
}

// MetadataOptions tunes export header construction.
type MetadataOptions struct {
	PriceListID      string
	DepreciationType domain.DepreciationType
	Supplemental     *Supplemental
	Now              func() time.Time
	NewTransactionID func() (string, error)
}

// BuildMetadata assembles the export header. Summary totals are summed from
// the line items passed in; the validator recomputes them independently
// before packaging.
func BuildMetadata(claim domain.Claim, session domain.InspectionSession, lineItems []domain.LineItem, opts MetadataOptions) (XactdocMetadata, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewTransactionID
	if newID == nil {
		newID = id.NewID
	}
	priceListID := opts.PriceListID
	if priceListID == "" {
		priceListID = DefaultPriceListID
	}
	depType := opts.DepreciationType
	if depType == "" {
		depType = domain.DepreciationRecoverable
	}

	transactionID, err := newID()
	if err != nil {
		return XactdocMetadata{}, err
	}

	var totals SummaryTotals
	for _, item := range lineItems {
		totals.TotalRCV += item.RCVTotal
		totals.TotalACV += item.ACVTotal
		totals.TotalDepreciation += item.DepreciationAmount
		totals.LineItemCount++
	}
	totals.TotalRCV = round2(totals.TotalRCV)
	totals.TotalACV = round2(totals.TotalACV)
	totals.TotalDepreciation = round2(totals.TotalDepreciation)

	coverages := make([]CoverageInfo, 0, len(claim.Coverages))
	for _, c := range claim.Coverages {
		coverages = append(coverages, CoverageInfo{Name: c.Name, Limit: c.Limit, Deductible: c.Deductible})
	}

	var roof *RoofSummary
	if claim.RoofInfo != nil {
		roof = &RoofSummary{
			Material:    claim.RoofInfo.Material,
			AgeYears:    claim.RoofInfo.AgeYears,
			SquareCount: claim.RoofInfo.SquareCount,
			Pitch:       claim.RoofInfo.Pitch,
		}
	}

	dateOfLoss := ""
	if !claim.DateOfLoss.IsZero() {
		dateOfLoss = claim.DateOfLoss.UTC().Format("2006-01-02")
	}

	return XactdocMetadata{
		TransactionID:    transactionID,
		ClaimNumber:      claim.ClaimNumber,
		PolicyNumber:     claim.PolicyNumber,
		Peril:            string(claim.Peril),
		DateOfLoss:       dateOfLoss,
		LossLocation:     LossLocation{Address: claim.PropertyAddress},
		Coverages:        coverages,
		RoofInfo:         roof,
		Adjuster:         PartyInfo{Name: claim.AdjusterName},
		Insured:          PartyInfo{Name: claim.InsuredName},
		PriceListID:      priceListID,
		DepreciationType: string(depType),
		Summary:          totals,
		Supplemental:     opts.Supplemental,
		ExportedAt:       now().UTC().Format(time.RFC3339),
	}, nil
}
