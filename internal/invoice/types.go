// Package invoice defines the e-invoicing data model shared by the tax
// calculator, the validator, the UBL serializer and the FTA client, plus
// the structural and cross-field validation rules the authority enforces.
//
// An InvoiceData value is assembled by an upstream billing module and is
// treated as immutable once serialization begins.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType classifies the fiscal document being issued.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "INVOICE"
	DocumentTypeCreditNote DocumentType = "CREDIT_NOTE"
	DocumentTypeDebitNote  DocumentType = "DEBIT_NOTE"
)

// Valid reports whether d is one of the recognized document types.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentTypeInvoice, DocumentTypeCreditNote, DocumentTypeDebitNote:
		return true
	}
	return false
}

// TypeCode returns the UNTDID 1001 document type code used in the UBL output.
func (d DocumentType) TypeCode() string {
	switch d {
	case DocumentTypeCreditNote:
		return "381"
	case DocumentTypeDebitNote:
		return "383"
	default:
		return "380"
	}
}

// TaxCategory is the closed set of VAT treatment classifications. Unrecognized
// values are rejected at the validation boundary instead of being passed
// through to the serializer.
type TaxCategory string

const (
	TaxCategoryStandard   TaxCategory = "STANDARD"
	TaxCategoryZeroRated  TaxCategory = "ZERO_RATED"
	TaxCategoryExempt     TaxCategory = "EXEMPT"
	TaxCategoryOutOfScope TaxCategory = "OUT_OF_SCOPE"
)

// Valid reports whether c is one of the recognized tax categories.
func (c TaxCategory) Valid() bool {
	switch c {
	case TaxCategoryStandard, TaxCategoryZeroRated, TaxCategoryExempt, TaxCategoryOutOfScope:
		return true
	}
	return false
}

// SchemeCode returns the UNCL 5305 category identifier for the UBL output.
func (c TaxCategory) SchemeCode() string {
	switch c {
	case TaxCategoryStandard:
		return "S"
	case TaxCategoryZeroRated:
		return "Z"
	case TaxCategoryExempt:
		return "E"
	case TaxCategoryOutOfScope:
		return "O"
	}
	return ""
}

// Address is a structured postal address. Street, City, Region and CountryCode
// are required on invoice parties.
type Address struct {
	Street           string `json:"street"`
	AdditionalStreet string `json:"additionalStreet,omitempty"`
	BuildingNumber   string `json:"buildingNumber,omitempty"`
	City             string `json:"city"`
	PostalCode       string `json:"postalCode,omitempty"`
	Region           string `json:"region"`
	CountryCode      string `json:"countryCode"`
}

// Contact holds optional contact details for a party.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Party is a supplier or customer on an invoice. Immutable once attached.
type Party struct {
	TRN                    string   `json:"trn,omitempty"`
	LegalName              string   `json:"legalName"`
	TradeName              string   `json:"tradeName,omitempty"`
	Address                Address  `json:"address"`
	Contact                *Contact `json:"contact,omitempty"`
	VATRegistered          bool     `json:"vatRegistered"`
	NationalID             string   `json:"nationalId,omitempty"`
	CommercialRegistration string   `json:"commercialRegistration,omitempty"`
}

// LineItem is a single invoice line. LineExtensionAmount is quantity times
// unit price, net of any item-level adjustments applied upstream.
type LineItem struct {
	ID                  string          `json:"id"`
	Description         string          `json:"description"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitCode            string          `json:"unitCode"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	LineExtensionAmount decimal.Decimal `json:"lineExtensionAmount"`
	TaxCategory         TaxCategory     `json:"taxCategory"`
	TaxRate             decimal.Decimal `json:"taxRate"`
	TaxAmount           decimal.Decimal `json:"taxAmount"`
}

// AllowanceChargeType discriminates document-level allowances from charges.
type AllowanceChargeType string

const (
	Allowance AllowanceChargeType = "ALLOWANCE"
	Charge    AllowanceChargeType = "CHARGE"
)

// AllowanceCharge is a document-level allowance (discount) or charge.
// TaxCategory is empty when the adjustment carries no tax treatment of
// its own.
type AllowanceCharge struct {
	Type        AllowanceChargeType `json:"type"`
	Reason      string              `json:"reason"`
	Amount      decimal.Decimal     `json:"amount"`
	BaseAmount  *decimal.Decimal    `json:"baseAmount,omitempty"`
	Percentage  *decimal.Decimal    `json:"percentage,omitempty"`
	TaxCategory TaxCategory         `json:"taxCategory,omitempty"`
	TaxRate     decimal.Decimal     `json:"taxRate"`
	TaxAmount   decimal.Decimal     `json:"taxAmount"`
}

// TaxBreakdownEntry accumulates taxable and tax amounts for one
// (category, rate) pair. The pair is unique within a breakdown.
type TaxBreakdownEntry struct {
	TaxCategory   TaxCategory     `json:"taxCategory"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
}

// InvoiceTotals holds the document-level monetary totals.
//
// Invariants (within 0.01 tolerance):
//
//	taxExclusiveAmount = lineExtensionAmount - allowanceTotal + chargeTotal
//	taxInclusiveAmount = taxExclusiveAmount + taxTotalAmount
//	payableAmount      = taxInclusiveAmount - prepaidAmount + roundingAmount
type InvoiceTotals struct {
	Currency            string              `json:"currency"`
	LineExtensionAmount decimal.Decimal     `json:"lineExtensionAmount"`
	AllowanceTotal      decimal.Decimal     `json:"allowanceTotal"`
	ChargeTotal         decimal.Decimal     `json:"chargeTotal"`
	TaxExclusiveAmount  decimal.Decimal     `json:"taxExclusiveAmount"`
	TaxBreakdown        []TaxBreakdownEntry `json:"taxBreakdown"`
	TaxTotalAmount      decimal.Decimal     `json:"taxTotalAmount"`
	TaxInclusiveAmount  decimal.Decimal     `json:"taxInclusiveAmount"`
	PrepaidAmount       decimal.Decimal     `json:"prepaidAmount"`
	RoundingAmount      decimal.Decimal     `json:"roundingAmount"`
	PayableAmount       decimal.Decimal     `json:"payableAmount"`
}

// Delivery is the optional delivery block.
type Delivery struct {
	ActualDeliveryDate *time.Time `json:"actualDeliveryDate,omitempty"`
	Address            *Address   `json:"address,omitempty"`
}

// PaymentMeans is the optional payment-means block.
type PaymentMeans struct {
	Code string `json:"code"`
	IBAN string `json:"iban,omitempty"`
	Note string `json:"note,omitempty"`
}

// InvoiceData is a complete invoice payload as assembled by the billing
// module. Created per billing event; never mutated after serialization
// begins.
type InvoiceData struct {
	InvoiceNumber         string            `json:"invoiceNumber"`
	DocumentType          DocumentType      `json:"documentType"`
	IssueDate             time.Time         `json:"issueDate"`
	DueDate               *time.Time        `json:"dueDate,omitempty"`
	OrderReference        string            `json:"orderReference,omitempty"`
	OriginalInvoiceNumber string            `json:"originalInvoiceNumber,omitempty"`
	Supplier              Party             `json:"supplier"`
	Customer              Party             `json:"customer"`
	LineItems             []LineItem        `json:"lineItems"`
	Totals                InvoiceTotals     `json:"totals"`
	Delivery              *Delivery         `json:"delivery,omitempty"`
	Payment               *PaymentMeans     `json:"payment,omitempty"`
	Notes                 []string          `json:"notes,omitempty"`
	AllowanceCharges      []AllowanceCharge `json:"allowanceCharges,omitempty"`
}
