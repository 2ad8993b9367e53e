package service

import (
	"context"
	"fmt"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/export"
	"github.com/openclaims/fieldgate/internal/inspection/pricing"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

// WithRegionalPriceLookup injects an external regional price list. Without
// one, M/L/E resolution uses the trade category table.
func WithRegionalPriceLookup(lookup pricing.RegionalPriceLookup) Option {
	return func(s *Service) {
		s.regionalPrices = lookup
	}
}

// priceLineItem derives the priced line item from raw tool input: RCV from
// quantity and unit price, the M/L/E component split, and age-based
// depreciation down to ACV.
func (s *Service) priceLineItem(ctx context.Context, itemID, sessionID string, resolved workflow.ResolvedContext, input lineItemInput) (domain.LineItem, error) {
	depType := domain.DepreciationType(input.DepreciationType)
	switch depType {
	case "":
		depType = domain.DepreciationRecoverable
	case domain.DepreciationRecoverable, domain.DepreciationNonRecoverable, domain.DepreciationPaidWhenIncurred:
	default:
		return domain.LineItem{}, apperrors.WithMetadata(
			apperrors.CodeToolInvalidInput,
			fmt.Sprintf("unknown depreciation type %s", input.DepreciationType),
			map[string]string{"DepreciationType": input.DepreciationType},
		)
	}

	rcv := round2(input.Quantity * input.UnitPrice)
	tradeCode := pricing.TradeCode(input.Category)

	split := pricing.ResolveMLE(ctx, pricing.MLEInput{
		Category:         tradeCode,
		PriceListID:      export.DefaultPriceListID,
		GetRegionalPrice: s.regionalPrices,
	})
	amounts := pricing.ApplyMLEToPrice(rcv, split)

	dep := pricing.CalculateDepreciation(pricing.DepreciationInput{
		TotalPrice:       rcv,
		Age:              input.AgeYears,
		LifeExpectancy:   input.LifeExpectancy,
		Category:         input.Category,
		Description:      input.Description,
		DepreciationType: depType,
	})

	return domain.LineItem{
		ID:          itemID,
		SessionID:   sessionID,
		RoomID:      firstNonEmptyString(input.RoomID, resolved.RoomID),
		DamageID:    input.DamageID,
		Category:    input.Category,
		Description: input.Description,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		UnitPrice:   input.UnitPrice,

		RCVTotal:       rcv,
		ACVTotal:       round2(rcv - dep.Amount),
		MaterialTotal:  amounts.Material,
		LaborTotal:     amounts.Labor,
		EquipmentTotal: amounts.Equipment,

		MaterialPct:  split.MaterialPct,
		LaborPct:     split.LaborPct,
		EquipmentPct: split.EquipmentPct,

		DepreciationPct:    dep.Percentage,
		DepreciationAmount: dep.Amount,
		DepreciationType:   depType,
		AgeYears:           input.AgeYears,

		TradeCode:  tradeCode,
		Provenance: input.Provenance,
	}, nil
}
