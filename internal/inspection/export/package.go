package export

import (
	"encoding/json"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// PackageLineItem is one line item as emitted in the export envelope.
type PackageLineItem struct {
	ID                 string  `json:"id"`
	RoomID             string  `json:"roomId"`
	DamageID           string  `json:"damageId,omitempty"`
	Category           string  `json:"category"`
	Description        string  `json:"description"`
	Quantity           float64 `json:"quantity"`
	Unit               string  `json:"unit,omitempty"`
	UnitPrice          float64 `json:"unitPrice"`
	RCVTotal           float64 `json:"rcvTotal"`
	ACVTotal           float64 `json:"acvTotal"`
	MaterialTotal      float64 `json:"material"`
	LaborTotal         float64 `json:"laborTotal"`
	EquipmentTotal     float64 `json:"equipment"`
	DepreciationPct    float64 `json:"depreciationPercentage"`
	DepreciationAmount float64 `json:"depreciationAmount"`
	TradeCode          string  `json:"tradeCode,omitempty"`
}

// Package is the export envelope handed to the external estimating format.
type Package struct {
	Metadata  XactdocMetadata   `json:"metadata"`
	LineItems []PackageLineItem `json:"lineItems"`
}

// BuildPackage assembles and validates the export envelope. It returns the
// validation result alongside the package; callers must not emit the
// package when the result is invalid.
func BuildPackage(claim domain.Claim, session domain.InspectionSession, lineItems []domain.LineItem, opts MetadataOptions) (Package, ValidationResult, error) {
	metadata, err := BuildMetadata(claim, session, lineItems, opts)
	if err != nil {
		return Package{}, ValidationResult{}, fmt.Errorf("build metadata: %w", err)
	}

	result := ValidateESXData(ValidationInput{
		LineItems: lineItems,
		Metadata:  metadata,
		Claim:     claim,
	})

	items := make([]PackageLineItem, 0, len(lineItems))
	for _, item := range lineItems {
		items = append(items, PackageLineItem{
			ID:                 item.ID,
			RoomID:             item.RoomID,
			DamageID:           item.DamageID,
			Category:           item.Category,
			Description:        item.Description,
			Quantity:           item.Quantity,
			Unit:               item.Unit,
			UnitPrice:          item.UnitPrice,
			RCVTotal:           item.RCVTotal,
			ACVTotal:           item.ACVTotal,
			MaterialTotal:      item.MaterialTotal,
			LaborTotal:         item.LaborTotal,
			EquipmentTotal:     item.EquipmentTotal,
			DepreciationPct:    item.DepreciationPct,
			DepreciationAmount: item.DepreciationAmount,
			TradeCode:          item.TradeCode,
		})
	}

	return Package{Metadata: metadata, LineItems: items}, result, nil
}

// Marshal renders the package as indented JSON for the export artifact.
func (p Package) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
