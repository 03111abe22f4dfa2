// Package vat implements the pure VAT arithmetic for the e-invoicing
// compliance engine: document-level VAT calculation with per-(category, rate)
// breakdowns, fiscal conversions between tax-inclusive and tax-exclusive
// amounts, and the special-case computations the jurisdiction defines
// (proportional supplies, reverse charge, tourist refunds).
//
// All functions are side-effect free. Monetary results are rounded to two
// decimal places using round-half-away-from-zero; business edge cases (zero
// rate, zero amount) produce well-defined zero results, never errors.
package vat

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

// Jurisdiction rate constants.
var (
	// StandardRate is the standard VAT rate (5%).
	StandardRate = decimal.NewFromFloat(0.05)
	// ZeroRate applies to zero-rated, exempt and out-of-scope supplies.
	ZeroRate = decimal.Zero
)

// Tourist refund scheme constants.
var (
	// TouristRefundMinimumPurchase is the minimum purchase amount that
	// qualifies for a refund.
	TouristRefundMinimumPurchase = decimal.NewFromInt(250)
	// TouristRefundProcessingFeeRate is deducted from the VAT amount as a
	// percentage-based processing fee.
	TouristRefundProcessingFeeRate = decimal.NewFromFloat(0.15)
	// TouristRefundAdminFee is the flat per-claim administration fee.
	TouristRefundAdminFee = decimal.NewFromFloat(4.80)
)

// VATCalculation is the document-level result of CalculateVAT.
type VATCalculation struct {
	Currency            string
	LineExtensionAmount decimal.Decimal
	AllowanceTotal      decimal.Decimal
	ChargeTotal         decimal.Decimal
	TaxExclusiveAmount  decimal.Decimal
	TaxBreakdown        []invoice.TaxBreakdownEntry
	TaxTotalAmount      decimal.Decimal
	TaxInclusiveAmount  decimal.Decimal
}

// RateForCategory maps a tax category to its jurisdiction rate. STANDARD
// maps to the standard rate, everything else to zero.
func RateForCategory(category invoice.TaxCategory) decimal.Decimal {
	if category == invoice.TaxCategoryStandard {
		return StandardRate
	}
	return ZeroRate
}

// CalculateLineItemTax computes the tax for a single taxable amount. EXEMPT
// and OUT_OF_SCOPE supplies carry no tax regardless of the supplied rate;
// otherwise the result is amount multiplied by rate, rounded to two decimals.
func CalculateLineItemTax(amount decimal.Decimal, category invoice.TaxCategory, rate decimal.Decimal) decimal.Decimal {
	switch category {
	case invoice.TaxCategoryExempt, invoice.TaxCategoryOutOfScope:
		return decimal.Zero.Round(2)
	}
	return amount.Mul(rate).Round(2)
}

// CalculateVAT computes the full document-level VAT picture from line items
// and document-level allowances and charges.
//
// Tax is grouped by (category, rate) across the line items; document-level
// adjustments that declare a tax category participate in the matching bucket,
// allowances subtracting from and charges adding to both the taxable and the
// tax amount. The breakdown is returned in a stable order (category, then
// rate) so repeated calls over the same input are identical.
func CalculateVAT(items []invoice.LineItem, currency string, allowances, charges []invoice.AllowanceCharge) VATCalculation {
	lineExtension := decimal.Zero
	buckets := make(map[bucketKey]*invoice.TaxBreakdownEntry)

	for _, item := range items {
		lineExtension = lineExtension.Add(item.LineExtensionAmount)
		tax := CalculateLineItemTax(item.LineExtensionAmount, item.TaxCategory, item.TaxRate)
		addToBucket(buckets, item.TaxCategory, item.TaxRate, item.LineExtensionAmount, tax)
	}

	allowanceTotal := decimal.Zero
	for _, a := range allowances {
		allowanceTotal = allowanceTotal.Add(a.Amount)
		if a.TaxCategory != "" {
			tax := CalculateLineItemTax(a.Amount, a.TaxCategory, a.TaxRate)
			addToBucket(buckets, a.TaxCategory, a.TaxRate, a.Amount.Neg(), tax.Neg())
		}
	}

	chargeTotal := decimal.Zero
	for _, c := range charges {
		chargeTotal = chargeTotal.Add(c.Amount)
		if c.TaxCategory != "" {
			tax := CalculateLineItemTax(c.Amount, c.TaxCategory, c.TaxRate)
			addToBucket(buckets, c.TaxCategory, c.TaxRate, c.Amount, tax)
		}
	}

	taxExclusive := lineExtension.Sub(allowanceTotal).Add(chargeTotal)

	breakdown := make([]invoice.TaxBreakdownEntry, 0, len(buckets))
	taxTotal := decimal.Zero
	for _, entry := range buckets {
		entry.TaxableAmount = entry.TaxableAmount.Round(2)
		entry.TaxAmount = entry.TaxAmount.Round(2)
		taxTotal = taxTotal.Add(entry.TaxAmount)
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TaxCategory != breakdown[j].TaxCategory {
			return breakdown[i].TaxCategory < breakdown[j].TaxCategory
		}
		return breakdown[i].TaxRate.LessThan(breakdown[j].TaxRate)
	})

	return VATCalculation{
		Currency:            currency,
		LineExtensionAmount: lineExtension.Round(2),
		AllowanceTotal:      allowanceTotal.Round(2),
		ChargeTotal:         chargeTotal.Round(2),
		TaxExclusiveAmount:  taxExclusive.Round(2),
		TaxBreakdown:        breakdown,
		TaxTotalAmount:      taxTotal.Round(2),
		TaxInclusiveAmount:  taxExclusive.Add(taxTotal).Round(2),
	}
}

type bucketKey struct {
	category invoice.TaxCategory
	rate     string
}

func addToBucket(buckets map[bucketKey]*invoice.TaxBreakdownEntry, category invoice.TaxCategory, rate, taxable, tax decimal.Decimal) {
	key := bucketKey{category: category, rate: rate.String()}
	entry, ok := buckets[key]
	if !ok {
		entry = &invoice.TaxBreakdownEntry{TaxCategory: category, TaxRate: rate}
		buckets[key] = entry
	}
	entry.TaxableAmount = entry.TaxableAmount.Add(taxable)
	entry.TaxAmount = entry.TaxAmount.Add(tax)
}

// Conversion is the result of a fiscal conversion between gross and net.
type Conversion struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// ConvertTaxInclusiveToExclusive extracts the net amount and tax from a
// gross (tax-inclusive) amount: net = gross / (1 + rate).
func ConvertTaxInclusiveToExclusive(gross, rate decimal.Decimal) Conversion {
	divisor := decimal.NewFromInt(1).Add(rate)
	net := gross.Div(divisor).Round(2)
	return Conversion{
		Net:   net,
		Tax:   gross.Sub(net).Round(2),
		Gross: gross.Round(2),
	}
}

// ConvertTaxExclusiveToInclusive adds tax on top of a net amount:
// tax = net * rate.
func ConvertTaxExclusiveToInclusive(net, rate decimal.Decimal) Conversion {
	tax := net.Mul(rate).Round(2)
	return Conversion{
		Net:   net.Round(2),
		Tax:   tax,
		Gross: net.Add(tax).Round(2),
	}
}

// ProportionalVAT is the result of splitting a mixed supply.
type ProportionalVAT struct {
	TaxablePortion decimal.Decimal
	ExemptPortion  decimal.Decimal
	TaxAmount      decimal.Decimal
}

// CalculateProportionalVAT splits a partly exempt supply into its taxable and
// exempt portions and computes tax on the taxable portion only.
// taxablePercentage is expressed as 0-100.
func CalculateProportionalVAT(total, taxablePercentage, rate decimal.Decimal) ProportionalVAT {
	taxable := total.Mul(taxablePercentage).Div(decimal.NewFromInt(100)).Round(2)
	return ProportionalVAT{
		TaxablePortion: taxable,
		ExemptPortion:  total.Sub(taxable).Round(2),
		TaxAmount:      taxable.Mul(rate).Round(2),
	}
}

// ReverseChargeVAT is the self-assessment result for imported services: the
// recipient reports equal output and input VAT, so the net liability is zero.
type ReverseChargeVAT struct {
	OutputVAT    decimal.Decimal
	InputVAT     decimal.Decimal
	NetLiability decimal.Decimal
}

// CalculateReverseChargeVAT computes the reverse-charge self-assessment for a
// service amount at the standard rate.
func CalculateReverseChargeVAT(serviceAmount decimal.Decimal) ReverseChargeVAT {
	output := serviceAmount.Mul(StandardRate).Round(2)
	return ReverseChargeVAT{
		OutputVAT:    output,
		InputVAT:     output,
		NetLiability: decimal.Zero,
	}
}

// TouristRefund is the refund breakdown for an eligible tourist purchase.
type TouristRefund struct {
	VATAmount     decimal.Decimal
	ProcessingFee decimal.Decimal
	AdminFee      decimal.Decimal
	RefundAmount  decimal.Decimal
}

// CalculateTouristRefund computes the refundable VAT for a tourist purchase.
// Purchases below the minimum threshold are not eligible and return nil.
// The refund is the VAT amount less the percentage-based processing fee and
// the flat administration fee, floored at zero.
func CalculateTouristRefund(purchaseAmount, vatAmount decimal.Decimal) *TouristRefund {
	if purchaseAmount.LessThan(TouristRefundMinimumPurchase) {
		return nil
	}

	fee := vatAmount.Mul(TouristRefundProcessingFeeRate).Round(2)
	refund := vatAmount.Sub(fee).Sub(TouristRefundAdminFee).Round(2)
	if refund.IsNegative() {
		refund = decimal.Zero
	}

	return &TouristRefund{
		VATAmount:     vatAmount.Round(2),
		ProcessingFee: fee,
		AdminFee:      TouristRefundAdminFee,
		RefundAmount:  refund,
	}
}
