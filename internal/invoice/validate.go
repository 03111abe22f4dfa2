package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the maximum absolute difference allowed when cross-checking
// declared totals against recomputed values (0.01 currency units).
var Tolerance = decimal.NewFromFloat(0.01)

// supportedCurrencies is the allow-list of document currency codes the
// authority accepts.
var supportedCurrencies = map[string]bool{
	"AED": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
	"SAR": true,
	"INR": true,
	"CNY": true,
	"JPY": true,
	"CHF": true,
	"AUD": true,
}

// ValidateInvoiceData runs all structural and cross-field checks on a
// complete invoice payload and returns the full list of findings. It never
// returns an error and never stops at the first problem; an empty list means
// the invoice is valid. Advisory TRN check-digit warnings are not included
// here — they must not block generation (see TRNCheckDigitFunc).
func ValidateInvoiceData(inv *InvoiceData) []ValidationError {
	var errs []ValidationError

	if inv == nil {
		return []ValidationError{newError("invoice_required", "invoice", "invoice payload is required")}
	}

	if inv.InvoiceNumber == "" {
		errs = append(errs, newError("invoice_number_required", "invoiceNumber", "invoice number is required"))
	}
	if !inv.DocumentType.Valid() {
		errs = append(errs, newError("document_type_invalid", "documentType",
			fmt.Sprintf("unrecognized document type %q", inv.DocumentType)))
	}
	if inv.IssueDate.IsZero() {
		errs = append(errs, newError("issue_date_required", "issueDate", "issue date is required"))
	}
	if inv.DueDate != nil && !inv.IssueDate.IsZero() && inv.DueDate.Before(inv.IssueDate) {
		errs = append(errs, newError("due_date_before_issue", "dueDate",
			"due date must be on or after the issue date"))
	}
	if inv.DocumentType == DocumentTypeCreditNote && inv.OriginalInvoiceNumber == "" {
		errs = append(errs, newError("original_invoice_required", "originalInvoiceNumber",
			"credit notes must reference the original invoice"))
	}

	errs = append(errs, validateParty(&inv.Supplier, "supplier")...)
	errs = append(errs, validateParty(&inv.Customer, "customer")...)

	if len(inv.LineItems) == 0 {
		errs = append(errs, newError("line_items_required", "lineItems", "at least one line item is required"))
	}
	for i := range inv.LineItems {
		errs = append(errs, validateLineItem(&inv.LineItems[i], fmt.Sprintf("lineItems[%d]", i))...)
	}

	errs = append(errs, validateTotals(inv)...)

	return errs
}

func validateParty(p *Party, field string) []ValidationError {
	var errs []ValidationError

	if p.LegalName == "" {
		errs = append(errs, newError("party_name_required", field+".legalName", "legal name is required"))
	}

	addr := field + ".address"
	if p.Address.Street == "" {
		errs = append(errs, newError("address_street_required", addr+".street", "street is required"))
	}
	if p.Address.City == "" {
		errs = append(errs, newError("address_city_required", addr+".city", "city is required"))
	}
	if p.Address.Region == "" {
		errs = append(errs, newError("address_region_required", addr+".region", "region is required"))
	}
	if p.Address.CountryCode == "" {
		errs = append(errs, newError("address_country_required", addr+".countryCode", "country code is required"))
	}

	if p.VATRegistered && p.TRN != "" {
		result := ValidateTRN(p.TRN)
		if !result.Valid {
			for _, e := range result.Errors {
				if e.Severity != SeverityError {
					continue
				}
				e.Field = field + "." + e.Field
				errs = append(errs, e)
			}
		}
	}

	if p.NationalID != "" {
		result := ValidateNationalID(p.NationalID)
		if !result.Valid {
			for _, e := range result.Errors {
				e.Field = field + "." + e.Field
				errs = append(errs, e)
			}
		}
	}

	return errs
}

func validateLineItem(item *LineItem, field string) []ValidationError {
	var errs []ValidationError

	if item.Description == "" {
		errs = append(errs, newError("line_description_required", field+".description", "description is required"))
	}
	if !item.Quantity.IsPositive() {
		errs = append(errs, newError("line_quantity_invalid", field+".quantity", "quantity must be greater than zero"))
	}
	if item.UnitPrice.IsNegative() {
		errs = append(errs, newError("line_unit_price_invalid", field+".unitPrice", "unit price must not be negative"))
	} else if item.UnitPrice.IsZero() && !item.LineExtensionAmount.IsZero() {
		errs = append(errs, newError("line_unit_price_required", field+".unitPrice", "unit price is required"))
	}
	if !item.TaxCategory.Valid() {
		errs = append(errs, newError("line_tax_category_invalid", field+".taxCategory",
			fmt.Sprintf("unrecognized tax category %q", item.TaxCategory)))
	}
	if item.TaxRate.IsNegative() {
		errs = append(errs, newError("line_tax_rate_invalid", field+".taxRate", "tax rate must not be negative"))
	}

	return errs
}

func validateTotals(inv *InvoiceData) []ValidationError {
	var errs []ValidationError
	t := &inv.Totals

	if t.Currency == "" {
		errs = append(errs, newError("currency_required", "totals.currency", "currency is required"))
	} else if !supportedCurrencies[t.Currency] {
		errs = append(errs, newError("currency_unsupported", "totals.currency",
			fmt.Sprintf("currency %q is not supported", t.Currency)))
	}

	// Cross-check each declared total against a recomputation from the line
	// items. Every mismatch beyond the tolerance is reported separately so
	// the caller sees all reconciliation problems at once.
	lineSum := decimal.Zero
	taxSum := decimal.Zero
	for _, item := range inv.LineItems {
		lineSum = lineSum.Add(item.LineExtensionAmount)
		taxSum = taxSum.Add(item.TaxAmount)
	}
	for _, ac := range inv.AllowanceCharges {
		if ac.TaxCategory == "" {
			continue
		}
		if ac.Type == Allowance {
			taxSum = taxSum.Sub(ac.TaxAmount)
		} else {
			taxSum = taxSum.Add(ac.TaxAmount)
		}
	}

	if outsideTolerance(lineSum, t.LineExtensionAmount) {
		errs = append(errs, newError("totals_line_extension_mismatch", "totals.lineExtensionAmount",
			fmt.Sprintf("declared line extension total %s does not match line item sum %s",
				t.LineExtensionAmount.StringFixed(2), lineSum.StringFixed(2))))
	}
	if outsideTolerance(taxSum, t.TaxTotalAmount) {
		errs = append(errs, newError("totals_tax_mismatch", "totals.taxTotalAmount",
			fmt.Sprintf("declared tax total %s does not match computed tax %s",
				t.TaxTotalAmount.StringFixed(2), taxSum.StringFixed(2))))
	}

	taxExclusive := t.LineExtensionAmount.Sub(t.AllowanceTotal).Add(t.ChargeTotal)
	if outsideTolerance(taxExclusive, t.TaxExclusiveAmount) {
		errs = append(errs, newError("totals_tax_exclusive_mismatch", "totals.taxExclusiveAmount",
			fmt.Sprintf("tax exclusive amount %s does not reconcile (expected %s)",
				t.TaxExclusiveAmount.StringFixed(2), taxExclusive.StringFixed(2))))
	}

	taxInclusive := t.TaxExclusiveAmount.Add(t.TaxTotalAmount)
	if outsideTolerance(taxInclusive, t.TaxInclusiveAmount) {
		errs = append(errs, newError("totals_tax_inclusive_mismatch", "totals.taxInclusiveAmount",
			fmt.Sprintf("tax inclusive amount %s does not reconcile (expected %s)",
				t.TaxInclusiveAmount.StringFixed(2), taxInclusive.StringFixed(2))))
	}

	payable := t.TaxInclusiveAmount.Sub(t.PrepaidAmount).Add(t.RoundingAmount)
	if outsideTolerance(payable, t.PayableAmount) {
		errs = append(errs, newError("totals_payable_mismatch", "totals.payableAmount",
			fmt.Sprintf("payable amount %s does not reconcile (expected %s)",
				t.PayableAmount.StringFixed(2), payable.StringFixed(2))))
	}

	// The breakdown entries must sum to the declared tax total as well.
	if len(t.TaxBreakdown) > 0 {
		breakdownSum := decimal.Zero
		for _, entry := range t.TaxBreakdown {
			breakdownSum = breakdownSum.Add(entry.TaxAmount)
		}
		if outsideTolerance(breakdownSum, t.TaxTotalAmount) {
			errs = append(errs, newError("totals_breakdown_mismatch", "totals.taxBreakdown",
				fmt.Sprintf("tax breakdown sum %s does not match tax total %s",
					breakdownSum.StringFixed(2), t.TaxTotalAmount.StringFixed(2))))
		}
	}

	return errs
}

func outsideTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(Tolerance)
}

// IsWithinRetentionPeriod reports whether date falls within the given number
// of years before now. Used by upstream retention policy to decide whether a
// document must still be kept.
func IsWithinRetentionPeriod(date time.Time, years int) bool {
	cutoff := time.Now().UTC().AddDate(-years, 0, 0)
	return !date.Before(cutoff)
}
