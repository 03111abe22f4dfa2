package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

// FixtureTRN is a well-formed registration number that also passes the
// check-digit algorithm.
const FixtureTRN = "100123456789014"

// FixtureParty returns a complete VAT-registered party.
func FixtureParty(name string) invoice.Party {
	return invoice.Party{
		TRN:           FixtureTRN,
		LegalName:     name,
		VATRegistered: true,
		Address: invoice.Address{
			Street:      "Sheikh Zayed Road",
			City:        "Dubai",
			Region:      "Dubai",
			PostalCode:  "00000",
			CountryCode: "AE",
		},
		Contact: &invoice.Contact{
			Email: "billing@example.ae",
		},
	}
}

// FixtureInvoice returns a fully self-consistent standard-rated invoice:
// one line of 2 x 50.00 AED at 5% VAT, no allowances or charges.
func FixtureInvoice(number string) *invoice.InvoiceData {
	qty := decimal.NewFromInt(2)
	unitPrice := decimal.NewFromInt(50)
	lineExt := qty.Mul(unitPrice)
	rate := decimal.NewFromFloat(0.05)
	tax := lineExt.Mul(rate).Round(2)

	return &invoice.InvoiceData{
		InvoiceNumber: number,
		DocumentType:  invoice.DocumentTypeInvoice,
		IssueDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Supplier:      FixtureParty("Gulf Books Trading LLC"),
		Customer:      FixtureParty("Desert Rose Publishing FZE"),
		LineItems: []invoice.LineItem{
			{
				ID:                  uuid.NewSHA1(uuid.NameSpaceOID, []byte(number)).String(),
				Description:         "Hardcover printing service",
				Quantity:            qty,
				UnitCode:            "C62",
				UnitPrice:           unitPrice,
				LineExtensionAmount: lineExt,
				TaxCategory:         invoice.TaxCategoryStandard,
				TaxRate:             rate,
				TaxAmount:           tax,
			},
		},
		Totals: invoice.InvoiceTotals{
			Currency:            "AED",
			LineExtensionAmount: lineExt,
			TaxExclusiveAmount:  lineExt,
			TaxBreakdown: []invoice.TaxBreakdownEntry{
				{
					TaxCategory:   invoice.TaxCategoryStandard,
					TaxRate:       rate,
					TaxableAmount: lineExt,
					TaxAmount:     tax,
				},
			},
			TaxTotalAmount:     tax,
			TaxInclusiveAmount: lineExt.Add(tax),
			PayableAmount:      lineExt.Add(tax),
		},
	}
}
