package vat

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(amount string, category invoice.TaxCategory, rate string) invoice.LineItem {
	return invoice.LineItem{
		LineExtensionAmount: dec(amount),
		TaxCategory:         category,
		TaxRate:             dec(rate),
	}
}

func TestRateForCategory(t *testing.T) {
	tests := []struct {
		category invoice.TaxCategory
		want     string
	}{
		{invoice.TaxCategoryStandard, "0.05"},
		{invoice.TaxCategoryZeroRated, "0"},
		{invoice.TaxCategoryExempt, "0"},
		{invoice.TaxCategoryOutOfScope, "0"},
	}

	for _, tt := range tests {
		if got := RateForCategory(tt.category); !got.Equal(dec(tt.want)) {
			t.Errorf("RateForCategory(%s) = %s, want %s", tt.category, got, tt.want)
		}
	}
}

func TestCalculateLineItemTax(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		category invoice.TaxCategory
		rate     string
		want     string
	}{
		{name: "standard rate", amount: "100", category: invoice.TaxCategoryStandard, rate: "0.05", want: "5"},
		{name: "zero rated", amount: "100", category: invoice.TaxCategoryZeroRated, rate: "0", want: "0"},
		{name: "exempt ignores rate", amount: "100", category: invoice.TaxCategoryExempt, rate: "0.05", want: "0"},
		{name: "out of scope ignores rate", amount: "100", category: invoice.TaxCategoryOutOfScope, rate: "0.20", want: "0"},
		{name: "zero amount", amount: "0", category: invoice.TaxCategoryStandard, rate: "0.05", want: "0"},
		{name: "rounds half away from zero", amount: "10.50", category: invoice.TaxCategoryStandard, rate: "0.05", want: "0.53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLineItemTax(dec(tt.amount), tt.category, dec(tt.rate))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateVAT_SingleStandardLine(t *testing.T) {
	calc := CalculateVAT([]invoice.LineItem{
		line("100", invoice.TaxCategoryStandard, "0.05"),
	}, "AED", nil, nil)

	if !calc.LineExtensionAmount.Equal(dec("100")) {
		t.Errorf("LineExtensionAmount = %s", calc.LineExtensionAmount)
	}
	if !calc.TaxExclusiveAmount.Equal(dec("100")) {
		t.Errorf("TaxExclusiveAmount = %s", calc.TaxExclusiveAmount)
	}
	if !calc.TaxTotalAmount.Equal(dec("5")) {
		t.Errorf("TaxTotalAmount = %s", calc.TaxTotalAmount)
	}
	if !calc.TaxInclusiveAmount.Equal(dec("105")) {
		t.Errorf("TaxInclusiveAmount = %s", calc.TaxInclusiveAmount)
	}
	if len(calc.TaxBreakdown) != 1 {
		t.Fatalf("expected one breakdown entry, got %d", len(calc.TaxBreakdown))
	}
}

func TestCalculateVAT_GroupsByCategoryAndRate(t *testing.T) {
	calc := CalculateVAT([]invoice.LineItem{
		line("100", invoice.TaxCategoryStandard, "0.05"),
		line("200", invoice.TaxCategoryStandard, "0.05"),
		line("50", invoice.TaxCategoryZeroRated, "0"),
		line("30", invoice.TaxCategoryExempt, "0"),
	}, "AED", nil, nil)

	if len(calc.TaxBreakdown) != 3 {
		t.Fatalf("expected 3 breakdown entries, got %d: %+v", len(calc.TaxBreakdown), calc.TaxBreakdown)
	}

	// Sorted by category name: EXEMPT, STANDARD, ZERO_RATED.
	if calc.TaxBreakdown[0].TaxCategory != invoice.TaxCategoryExempt {
		t.Errorf("breakdown[0] category = %s", calc.TaxBreakdown[0].TaxCategory)
	}
	standard := calc.TaxBreakdown[1]
	if !standard.TaxableAmount.Equal(dec("300")) || !standard.TaxAmount.Equal(dec("15")) {
		t.Errorf("standard bucket = %s taxable / %s tax", standard.TaxableAmount, standard.TaxAmount)
	}

	if !calc.TaxTotalAmount.Equal(dec("15")) {
		t.Errorf("TaxTotalAmount = %s, want 15", calc.TaxTotalAmount)
	}
}

func TestCalculateVAT_BreakdownSumMatchesTotal(t *testing.T) {
	calc := CalculateVAT([]invoice.LineItem{
		line("33.33", invoice.TaxCategoryStandard, "0.05"),
		line("66.67", invoice.TaxCategoryStandard, "0.05"),
		line("10.01", invoice.TaxCategoryZeroRated, "0"),
	}, "AED", nil, nil)

	sum := decimal.Zero
	for _, entry := range calc.TaxBreakdown {
		sum = sum.Add(entry.TaxAmount)
	}
	if sum.Sub(calc.TaxTotalAmount).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("breakdown sum %s drifts from tax total %s", sum, calc.TaxTotalAmount)
	}
}

func TestCalculateVAT_AllowancesAndCharges(t *testing.T) {
	allowances := []invoice.AllowanceCharge{
		{
			Type:        invoice.Allowance,
			Amount:      dec("20"),
			TaxCategory: invoice.TaxCategoryStandard,
			TaxRate:     dec("0.05"),
		},
	}
	charges := []invoice.AllowanceCharge{
		{
			Type:        invoice.Charge,
			Amount:      dec("10"),
			TaxCategory: invoice.TaxCategoryStandard,
			TaxRate:     dec("0.05"),
		},
	}

	calc := CalculateVAT([]invoice.LineItem{
		line("100", invoice.TaxCategoryStandard, "0.05"),
	}, "AED", allowances, charges)

	// taxExclusive = 100 - 20 + 10
	if !calc.TaxExclusiveAmount.Equal(dec("90")) {
		t.Errorf("TaxExclusiveAmount = %s, want 90", calc.TaxExclusiveAmount)
	}
	// tax = 5 - 1 + 0.50
	if !calc.TaxTotalAmount.Equal(dec("4.5")) {
		t.Errorf("TaxTotalAmount = %s, want 4.5", calc.TaxTotalAmount)
	}
	if len(calc.TaxBreakdown) != 1 {
		t.Fatalf("adjustments share the line bucket, got %d entries", len(calc.TaxBreakdown))
	}
	if !calc.TaxBreakdown[0].TaxableAmount.Equal(dec("90")) {
		t.Errorf("bucket taxable = %s, want 90", calc.TaxBreakdown[0].TaxableAmount)
	}
}

func TestCalculateVAT_UncategorizedAdjustmentsSkipTax(t *testing.T) {
	allowances := []invoice.AllowanceCharge{
		{Type: invoice.Allowance, Amount: dec("15")},
	}

	calc := CalculateVAT([]invoice.LineItem{
		line("100", invoice.TaxCategoryStandard, "0.05"),
	}, "AED", allowances, nil)

	if !calc.TaxExclusiveAmount.Equal(dec("85")) {
		t.Errorf("TaxExclusiveAmount = %s, want 85", calc.TaxExclusiveAmount)
	}
	// Allowance without a tax category leaves the tax buckets alone.
	if !calc.TaxTotalAmount.Equal(dec("5")) {
		t.Errorf("TaxTotalAmount = %s, want 5", calc.TaxTotalAmount)
	}
}

func TestCalculateVAT_EmptyInput(t *testing.T) {
	calc := CalculateVAT(nil, "AED", nil, nil)

	if !calc.TaxTotalAmount.IsZero() || !calc.TaxInclusiveAmount.IsZero() {
		t.Errorf("empty input must produce zero totals, got %+v", calc)
	}
	if len(calc.TaxBreakdown) != 0 {
		t.Errorf("empty input must produce no breakdown, got %v", calc.TaxBreakdown)
	}
}

func TestConvertTaxInclusiveToExclusive(t *testing.T) {
	conv := ConvertTaxInclusiveToExclusive(dec("105"), dec("0.05"))

	if !conv.Net.Equal(dec("100")) {
		t.Errorf("Net = %s, want 100", conv.Net)
	}
	if !conv.Tax.Equal(dec("5")) {
		t.Errorf("Tax = %s, want 5", conv.Tax)
	}

	// Zero rate passes gross through.
	conv = ConvertTaxInclusiveToExclusive(dec("105"), decimal.Zero)
	if !conv.Net.Equal(dec("105")) || !conv.Tax.IsZero() {
		t.Errorf("zero rate: got net %s tax %s", conv.Net, conv.Tax)
	}
}

func TestConvertTaxExclusiveToInclusive(t *testing.T) {
	conv := ConvertTaxExclusiveToInclusive(dec("100"), dec("0.05"))

	if !conv.Tax.Equal(dec("5")) {
		t.Errorf("Tax = %s, want 5", conv.Tax)
	}
	if !conv.Gross.Equal(dec("105")) {
		t.Errorf("Gross = %s, want 105", conv.Gross)
	}
}

func TestConversionsRoundTrip(t *testing.T) {
	rate := dec("0.05")
	net := dec("1234.56")

	inclusive := ConvertTaxExclusiveToInclusive(net, rate)
	back := ConvertTaxInclusiveToExclusive(inclusive.Gross, rate)

	if back.Net.Sub(net).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("round trip drifted: %s -> %s -> %s", net, inclusive.Gross, back.Net)
	}
}

func TestCalculateProportionalVAT(t *testing.T) {
	result := CalculateProportionalVAT(dec("1000"), dec("60"), dec("0.05"))

	if !result.TaxablePortion.Equal(dec("600")) {
		t.Errorf("TaxablePortion = %s, want 600", result.TaxablePortion)
	}
	if !result.ExemptPortion.Equal(dec("400")) {
		t.Errorf("ExemptPortion = %s, want 400", result.ExemptPortion)
	}
	if !result.TaxAmount.Equal(dec("30")) {
		t.Errorf("TaxAmount = %s, want 30", result.TaxAmount)
	}
}

func TestCalculateReverseChargeVAT(t *testing.T) {
	result := CalculateReverseChargeVAT(dec("2000"))

	if !result.OutputVAT.Equal(dec("100")) {
		t.Errorf("OutputVAT = %s, want 100", result.OutputVAT)
	}
	if !result.OutputVAT.Equal(result.InputVAT) {
		t.Error("output and input VAT must be equal under reverse charge")
	}
	if !result.NetLiability.IsZero() {
		t.Errorf("NetLiability = %s, want 0", result.NetLiability)
	}
}

func TestCalculateTouristRefund(t *testing.T) {
	t.Run("below minimum purchase", func(t *testing.T) {
		if refund := CalculateTouristRefund(dec("249.99"), dec("11.90")); refund != nil {
			t.Errorf("purchase below the minimum must not qualify, got %+v", refund)
		}
	})

	t.Run("eligible purchase", func(t *testing.T) {
		// 1000 purchase, 47.62 VAT: fee = 7.14, refund = 47.62 - 7.14 - 4.80.
		refund := CalculateTouristRefund(dec("1000"), dec("47.62"))
		if refund == nil {
			t.Fatal("expected a refund")
		}
		if !refund.ProcessingFee.Equal(dec("7.14")) {
			t.Errorf("ProcessingFee = %s, want 7.14", refund.ProcessingFee)
		}
		if !refund.RefundAmount.Equal(dec("35.68")) {
			t.Errorf("RefundAmount = %s, want 35.68", refund.RefundAmount)
		}
	})

	t.Run("refund floored at zero", func(t *testing.T) {
		// Fees exceed the VAT on a minimal eligible purchase.
		refund := CalculateTouristRefund(dec("250"), dec("3.00"))
		if refund == nil {
			t.Fatal("expected a refund breakdown")
		}
		if !refund.RefundAmount.IsZero() {
			t.Errorf("RefundAmount = %s, want 0", refund.RefundAmount)
		}
	})
}
