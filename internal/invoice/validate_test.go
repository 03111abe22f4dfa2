package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validParty(name string) Party {
	return Party{
		TRN:           "100123456789014",
		LegalName:     name,
		VATRegistered: true,
		Address: Address{
			Street:      "Sheikh Zayed Road",
			City:        "Dubai",
			Region:      "Dubai",
			CountryCode: "AE",
		},
	}
}

// validInvoice returns a self-consistent standard-rated invoice:
// 2 x 50.00 at 5% VAT.
func validInvoice() *InvoiceData {
	lineExt := decimal.NewFromInt(100)
	rate := decimal.NewFromFloat(0.05)
	tax := decimal.NewFromInt(5)

	return &InvoiceData{
		InvoiceNumber: "INV-2026-0001",
		DocumentType:  DocumentTypeInvoice,
		IssueDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Supplier:      validParty("Gulf Books Trading LLC"),
		Customer:      validParty("Desert Rose Publishing FZE"),
		LineItems: []LineItem{
			{
				ID:                  "line-1",
				Description:         "Hardcover printing service",
				Quantity:            decimal.NewFromInt(2),
				UnitCode:            "C62",
				UnitPrice:           decimal.NewFromInt(50),
				LineExtensionAmount: lineExt,
				TaxCategory:         TaxCategoryStandard,
				TaxRate:             rate,
				TaxAmount:           tax,
			},
		},
		Totals: InvoiceTotals{
			Currency:            "AED",
			LineExtensionAmount: lineExt,
			TaxExclusiveAmount:  lineExt,
			TaxBreakdown: []TaxBreakdownEntry{
				{TaxCategory: TaxCategoryStandard, TaxRate: rate, TaxableAmount: lineExt, TaxAmount: tax},
			},
			TaxTotalAmount:     tax,
			TaxInclusiveAmount: decimal.NewFromInt(105),
			PayableAmount:      decimal.NewFromInt(105),
		},
	}
}

func findingCodes(errs []ValidationError) map[string]bool {
	codes := make(map[string]bool, len(errs))
	for _, e := range errs {
		codes[e.Code] = true
	}
	return codes
}

func TestValidateInvoiceData_ValidInvoice(t *testing.T) {
	errs := ValidateInvoiceData(validInvoice())
	if len(errs) != 0 {
		t.Errorf("expected no findings for a consistent invoice, got %v", errs)
	}
}

func TestValidateInvoiceData_NilInvoice(t *testing.T) {
	errs := ValidateInvoiceData(nil)
	if len(errs) != 1 || errs[0].Code != "invoice_required" {
		t.Errorf("expected single invoice_required finding, got %v", errs)
	}
}

func TestValidateInvoiceData_CollectsAllFindings(t *testing.T) {
	inv := validInvoice()
	inv.InvoiceNumber = ""
	inv.IssueDate = time.Time{}
	inv.Supplier.LegalName = ""
	inv.LineItems[0].Description = ""

	errs := ValidateInvoiceData(inv)
	codes := findingCodes(errs)

	for _, want := range []string{
		"invoice_number_required",
		"issue_date_required",
		"party_name_required",
		"line_description_required",
	} {
		if !codes[want] {
			t.Errorf("missing finding %q in %v", want, errs)
		}
	}
}

func TestValidateInvoiceData_DueDateBeforeIssue(t *testing.T) {
	inv := validInvoice()
	due := inv.IssueDate.AddDate(0, 0, -1)
	inv.DueDate = &due

	codes := findingCodes(ValidateInvoiceData(inv))
	if !codes["due_date_before_issue"] {
		t.Error("expected due_date_before_issue finding")
	}

	// Due date equal to issue date is allowed.
	due = inv.IssueDate
	inv.DueDate = &due
	if errs := ValidateInvoiceData(inv); len(errs) != 0 {
		t.Errorf("due date equal to issue date should be valid, got %v", errs)
	}
}

func TestValidateInvoiceData_CreditNoteNeedsOriginalReference(t *testing.T) {
	inv := validInvoice()
	inv.DocumentType = DocumentTypeCreditNote

	codes := findingCodes(ValidateInvoiceData(inv))
	if !codes["original_invoice_required"] {
		t.Error("expected original_invoice_required finding")
	}

	inv.OriginalInvoiceNumber = "INV-2026-0000"
	if errs := ValidateInvoiceData(inv); len(errs) != 0 {
		t.Errorf("credit note with original reference should be valid, got %v", errs)
	}
}

func TestValidateInvoiceData_PartyTRN(t *testing.T) {
	inv := validInvoice()
	inv.Supplier.TRN = "200123456789014"

	var found bool
	for _, e := range ValidateInvoiceData(inv) {
		if e.Code == "trn_prefix" {
			found = true
			if e.Field != "supplier.trn" {
				t.Errorf("TRN finding should be tagged to the party, got field %q", e.Field)
			}
		}
	}
	if !found {
		t.Error("expected trn_prefix finding for the supplier")
	}
}

func TestValidateInvoiceData_TRNCheckDigitDoesNotBlock(t *testing.T) {
	inv := validInvoice()
	// Format-valid TRN whose check digit fails: only an advisory warning,
	// which must not surface as an invoice-level error.
	inv.Supplier.TRN = "100123456789012"

	if errs := ValidateInvoiceData(inv); len(errs) != 0 {
		t.Errorf("advisory check digit must not block the invoice, got %v", errs)
	}
}

func TestValidateInvoiceData_NoLineItems(t *testing.T) {
	inv := validInvoice()
	inv.LineItems = nil
	inv.Totals = InvoiceTotals{Currency: "AED"}

	codes := findingCodes(ValidateInvoiceData(inv))
	if !codes["line_items_required"] {
		t.Error("expected line_items_required finding")
	}
}

func TestValidateInvoiceData_LineItemChecks(t *testing.T) {
	inv := validInvoice()
	inv.LineItems[0].Quantity = decimal.Zero
	inv.LineItems[0].UnitPrice = decimal.NewFromInt(-1)
	inv.LineItems[0].TaxCategory = "REDUCED"
	inv.LineItems[0].TaxRate = decimal.NewFromFloat(-0.05)

	codes := findingCodes(ValidateInvoiceData(inv))
	for _, want := range []string{
		"line_quantity_invalid",
		"line_unit_price_invalid",
		"line_tax_category_invalid",
		"line_tax_rate_invalid",
	} {
		if !codes[want] {
			t.Errorf("missing finding %q", want)
		}
	}
}

func TestValidateInvoiceData_CurrencyAllowList(t *testing.T) {
	inv := validInvoice()
	inv.Totals.Currency = "XTS"

	codes := findingCodes(ValidateInvoiceData(inv))
	if !codes["currency_unsupported"] {
		t.Error("expected currency_unsupported finding")
	}
}

func TestValidateInvoiceData_TotalsMismatches(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*InvoiceData)
		wantCode string
	}{
		{
			name:     "line extension mismatch",
			mutate:   func(inv *InvoiceData) { inv.Totals.LineExtensionAmount = decimal.NewFromInt(90) },
			wantCode: "totals_line_extension_mismatch",
		},
		{
			name:     "tax total mismatch",
			mutate:   func(inv *InvoiceData) { inv.Totals.TaxTotalAmount = decimal.NewFromInt(9) },
			wantCode: "totals_tax_mismatch",
		},
		{
			name:     "tax inclusive mismatch",
			mutate:   func(inv *InvoiceData) { inv.Totals.TaxInclusiveAmount = decimal.NewFromInt(100) },
			wantCode: "totals_tax_inclusive_mismatch",
		},
		{
			name:     "payable mismatch",
			mutate:   func(inv *InvoiceData) { inv.Totals.PayableAmount = decimal.NewFromInt(200) },
			wantCode: "totals_payable_mismatch",
		},
		{
			name: "breakdown mismatch",
			mutate: func(inv *InvoiceData) {
				inv.Totals.TaxBreakdown[0].TaxAmount = decimal.NewFromInt(1)
			},
			wantCode: "totals_breakdown_mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(inv)
			codes := findingCodes(ValidateInvoiceData(inv))
			if !codes[tt.wantCode] {
				t.Errorf("expected finding %q, got %v", tt.wantCode, ValidateInvoiceData(inv))
			}
		})
	}
}

func TestValidateInvoiceData_ToleranceAbsorbsRounding(t *testing.T) {
	inv := validInvoice()
	// One cent off stays inside the tolerance.
	inv.Totals.PayableAmount = decimal.NewFromFloat(105.01)

	if errs := ValidateInvoiceData(inv); len(errs) != 0 {
		t.Errorf("0.01 difference must be tolerated, got %v", errs)
	}
}

func TestIsWithinRetentionPeriod(t *testing.T) {
	now := time.Now().UTC()

	if !IsWithinRetentionPeriod(now.AddDate(-4, 0, 0), 5) {
		t.Error("4-year-old date should be within a 5-year retention period")
	}
	if IsWithinRetentionPeriod(now.AddDate(-6, 0, 0), 5) {
		t.Error("6-year-old date should be outside a 5-year retention period")
	}
}
