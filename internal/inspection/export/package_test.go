package export

import (
	"encoding/json"
	"testing"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

func TestBuildPackage(t *testing.T) {
	item := validLineItem()
	pkg, validation, err := BuildPackage(testClaim(), domain.InspectionSession{}, []domain.LineItem{item}, fixedMetadataOptions())
	if err != nil {
		t.Fatalf("BuildPackage: %v", err)
	}
	if !validation.IsValid {
		t.Fatalf("validation errors: %v", validation.Errors)
	}
	if pkg.Metadata.TransactionID != "txn-1" {
		t.Fatalf("transaction id = %q", pkg.Metadata.TransactionID)
	}
	if len(pkg.LineItems) != 1 {
		t.Fatalf("line items = %d", len(pkg.LineItems))
	}

	got := pkg.LineItems[0]
	if got.ID != item.ID || got.RoomID != item.RoomID || got.TradeCode != item.TradeCode {
		t.Fatalf("line item = %+v", got)
	}
	if got.RCVTotal != item.RCVTotal || got.ACVTotal != item.ACVTotal {
		t.Fatalf("line item totals = %+v", got)
	}
	if got.MaterialTotal != 66 || got.LaborTotal != 74.25 || got.EquipmentTotal != 24.75 {
		t.Fatalf("line item components = %+v", got)
	}
}

func TestBuildPackageReportsInvalidData(t *testing.T) {
	item := validLineItem()
	item.ACVTotal = item.RCVTotal + 50

	pkg, validation, err := BuildPackage(testClaim(), domain.InspectionSession{}, []domain.LineItem{item}, fixedMetadataOptions())
	if err != nil {
		t.Fatalf("BuildPackage: %v", err)
	}
	if validation.IsValid {
		t.Fatal("expected invalid")
	}
	// The envelope is still assembled so callers can surface it for review.
	if len(pkg.LineItems) != 1 {
		t.Fatalf("line items = %d", len(pkg.LineItems))
	}
}

func TestPackageMarshal(t *testing.T) {
	pkg, _, err := BuildPackage(testClaim(), domain.InspectionSession{}, []domain.LineItem{validLineItem()}, fixedMetadataOptions())
	if err != nil {
		t.Fatalf("BuildPackage: %v", err)
	}
	raw, err := pkg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	metadata, ok := decoded["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata block missing: %v", decoded)
	}
	if metadata["transactionId"] != "txn-1" {
		t.Fatalf("transactionId = %v", metadata["transactionId"])
	}
	if _, found := decoded["lineItems"]; !found {
		t.Fatal("lineItems block missing")
	}
}
