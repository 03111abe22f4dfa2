// Package ubl serializes validated invoices into the UBL 2.1 XML documents
// the tax authority accepts, together with the SHA-256 integrity hash that
// accompanies every submission.
//
// The document is built as an explicit element tree (xml_types.go) in the
// fixed schema order and handed to encoding/xml in one place, keeping "what
// to emit" separate from "how to format it".
package ubl

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

const dateLayout = "2006-01-02"

// Document is a rendered, hash-stamped invoice ready for submission.
type Document struct {
	InvoiceNumber string
	DocumentType  invoice.DocumentType
	XML           []byte
	Hash          string
}

// GenerateInvoiceXML validates the invoice and, if it is clean, renders the
// UBL document for its type plus the lowercase hex SHA-256 digest of the
// exact serialized bytes. When validation fails no partial document is
// produced; the aggregated findings are returned as an
// invoice.ValidationErrors error.
func GenerateInvoiceXML(inv *invoice.InvoiceData) (*Document, error) {
	if errs := invoice.ValidateInvoiceData(inv); len(errs) > 0 {
		return nil, invoice.ValidationErrors(errs)
	}

	var payload any
	switch inv.DocumentType {
	case invoice.DocumentTypeCreditNote:
		payload = buildCreditNote(inv)
	case invoice.DocumentTypeDebitNote:
		payload = buildDebitNote(inv)
	default:
		payload = buildInvoice(inv)
	}

	body, err := xml.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s document: %w", inv.DocumentType, err)
	}

	raw := append([]byte(xml.Header), body...)
	sum := sha256.Sum256(raw)

	return &Document{
		InvoiceNumber: inv.InvoiceNumber,
		DocumentType:  inv.DocumentType,
		XML:           raw,
		Hash:          hex.EncodeToString(sum[:]),
	}, nil
}

func buildInvoice(inv *invoice.InvoiceData) *xmlInvoice {
	currency := inv.Totals.Currency
	doc := &xmlInvoice{
		Xmlns:              xmlnsInvoice,
		Cac:                xmlnsCAC,
		Cbc:                xmlnsCBC,
		CustomizationID:    CustomizationID,
		ProfileID:          ProfileID,
		ID:                 inv.InvoiceNumber,
		IssueDate:          inv.IssueDate.Format(dateLayout),
		InvoiceTypeCode:    inv.DocumentType.TypeCode(),
		Notes:              inv.Notes,
		DocumentCurrency:   currency,
		TaxCurrency:        currency,
		OrderReference:     buildOrderReference(inv),
		SupplierParty:      xmlSupplierParty{Party: buildParty(&inv.Supplier)},
		CustomerParty:      xmlCustomerParty{Party: buildParty(&inv.Customer)},
		Delivery:           buildDelivery(inv.Delivery),
		PaymentMeans:       buildPaymentMeans(inv.Payment),
		AllowanceCharges:   buildAllowanceCharges(inv.AllowanceCharges, currency),
		TaxTotal:           buildTaxTotal(&inv.Totals),
		LegalMonetaryTotal: buildMonetaryTotal(&inv.Totals),
	}
	if inv.DueDate != nil {
		doc.DueDate = inv.DueDate.Format(dateLayout)
	}
	for i := range inv.LineItems {
		doc.Lines = append(doc.Lines, buildInvoiceLine(&inv.LineItems[i], currency))
	}
	return doc
}

func buildCreditNote(inv *invoice.InvoiceData) *xmlCreditNote {
	currency := inv.Totals.Currency
	doc := &xmlCreditNote{
		Xmlns:              xmlnsCreditNote,
		Cac:                xmlnsCAC,
		Cbc:                xmlnsCBC,
		CustomizationID:    CustomizationID,
		ProfileID:          ProfileID,
		ID:                 inv.InvoiceNumber,
		IssueDate:          inv.IssueDate.Format(dateLayout),
		CreditNoteTypeCode: inv.DocumentType.TypeCode(),
		Notes:              inv.Notes,
		DocumentCurrency:   currency,
		TaxCurrency:        currency,
		OrderReference:     buildOrderReference(inv),
		BillingReference:   buildBillingReference(inv),
		SupplierParty:      xmlSupplierParty{Party: buildParty(&inv.Supplier)},
		CustomerParty:      xmlCustomerParty{Party: buildParty(&inv.Customer)},
		Delivery:           buildDelivery(inv.Delivery),
		PaymentMeans:       buildPaymentMeans(inv.Payment),
		AllowanceCharges:   buildAllowanceCharges(inv.AllowanceCharges, currency),
		TaxTotal:           buildTaxTotal(&inv.Totals),
		LegalMonetaryTotal: buildMonetaryTotal(&inv.Totals),
	}
	if inv.DueDate != nil {
		doc.DueDate = inv.DueDate.Format(dateLayout)
	}
	for i := range inv.LineItems {
		line := buildInvoiceLine(&inv.LineItems[i], currency)
		doc.Lines = append(doc.Lines, xmlCreditNoteLine{
			ID:                  line.ID,
			CreditedQuantity:    line.InvoicedQuantity,
			LineExtensionAmount: line.LineExtensionAmount,
			TaxTotal:            line.TaxTotal,
			Item:                line.Item,
			Price:               line.Price,
		})
	}
	return doc
}

func buildDebitNote(inv *invoice.InvoiceData) *xmlDebitNote {
	currency := inv.Totals.Currency
	doc := &xmlDebitNote{
		Xmlns:              xmlnsDebitNote,
		Cac:                xmlnsCAC,
		Cbc:                xmlnsCBC,
		CustomizationID:    CustomizationID,
		ProfileID:          ProfileID,
		ID:                 inv.InvoiceNumber,
		IssueDate:          inv.IssueDate.Format(dateLayout),
		DocumentTypeCode:   inv.DocumentType.TypeCode(),
		Notes:              inv.Notes,
		DocumentCurrency:   currency,
		TaxCurrency:        currency,
		OrderReference:     buildOrderReference(inv),
		BillingReference:   buildBillingReference(inv),
		SupplierParty:      xmlSupplierParty{Party: buildParty(&inv.Supplier)},
		CustomerParty:      xmlCustomerParty{Party: buildParty(&inv.Customer)},
		Delivery:           buildDelivery(inv.Delivery),
		PaymentMeans:       buildPaymentMeans(inv.Payment),
		AllowanceCharges:   buildAllowanceCharges(inv.AllowanceCharges, currency),
		TaxTotal:           buildTaxTotal(&inv.Totals),
		LegalMonetaryTotal: buildMonetaryTotal(&inv.Totals),
	}
	if inv.DueDate != nil {
		doc.DueDate = inv.DueDate.Format(dateLayout)
	}
	for i := range inv.LineItems {
		line := buildInvoiceLine(&inv.LineItems[i], currency)
		doc.Lines = append(doc.Lines, xmlDebitNoteLine{
			ID:                  line.ID,
			DebitedQuantity:     line.InvoicedQuantity,
			LineExtensionAmount: line.LineExtensionAmount,
			TaxTotal:            line.TaxTotal,
			Item:                line.Item,
			Price:               line.Price,
		})
	}
	return doc
}

func buildOrderReference(inv *invoice.InvoiceData) *xmlOrderReference {
	if inv.OrderReference == "" {
		return nil
	}
	return &xmlOrderReference{ID: inv.OrderReference}
}

func buildBillingReference(inv *invoice.InvoiceData) *xmlBillingReference {
	if inv.OriginalInvoiceNumber == "" {
		return nil
	}
	return &xmlBillingReference{
		InvoiceDocumentReference: xmlDocumentReference{ID: inv.OriginalInvoiceNumber},
	}
}

func buildParty(p *invoice.Party) xmlParty {
	party := xmlParty{
		PostalAddress: buildAddress(&p.Address),
		LegalEntity: xmlPartyLegalEntity{
			RegistrationName: p.LegalName,
			CompanyID:        p.CommercialRegistration,
		},
	}

	if p.TRN != "" {
		party.Identifications = append(party.Identifications, xmlPartyIdentification{
			ID: xmlSchemeValue{Value: invoice.CleanTRN(p.TRN), SchemeID: schemeTRN},
		})
	}
	if p.NationalID != "" {
		party.Identifications = append(party.Identifications, xmlPartyIdentification{
			ID: xmlSchemeValue{Value: invoice.CleanTRN(p.NationalID), SchemeID: schemeNationalID},
		})
	}

	name := p.TradeName
	if name == "" {
		name = p.LegalName
	}
	party.PartyName = &xmlPartyName{Name: name}

	if p.VATRegistered && p.TRN != "" {
		party.PartyTaxScheme = &xmlPartyTaxScheme{
			CompanyID: invoice.CleanTRN(p.TRN),
			TaxScheme: xmlTaxScheme{ID: "VAT"},
		}
	}

	if c := p.Contact; c != nil && (c.Name != "" || c.Phone != "" || c.Email != "") {
		party.Contact = &xmlContact{Name: c.Name, Telephone: c.Phone, Email: c.Email}
	}

	return party
}

func buildAddress(a *invoice.Address) xmlPostalAddress {
	return xmlPostalAddress{
		StreetName:           a.Street,
		AdditionalStreetName: a.AdditionalStreet,
		BuildingNumber:       a.BuildingNumber,
		CityName:             a.City,
		PostalZone:           a.PostalCode,
		CountrySubentity:     a.Region,
		Country:              xmlCountry{IdentificationCode: a.CountryCode},
	}
}

func buildDelivery(d *invoice.Delivery) *xmlDelivery {
	if d == nil {
		return nil
	}
	out := &xmlDelivery{}
	if d.ActualDeliveryDate != nil {
		out.ActualDeliveryDate = d.ActualDeliveryDate.Format(dateLayout)
	}
	if d.Address != nil {
		out.DeliveryLocation = &xmlDeliveryLocation{Address: buildAddress(d.Address)}
	}
	return out
}

func buildPaymentMeans(p *invoice.PaymentMeans) *xmlPaymentMeans {
	if p == nil {
		return nil
	}
	out := &xmlPaymentMeans{
		PaymentMeansCode: p.Code,
		InstructionNote:  p.Note,
	}
	if p.IBAN != "" {
		out.PayeeFinancialAccount = &xmlFinancialAccount{ID: p.IBAN}
	}
	return out
}

func buildAllowanceCharges(acs []invoice.AllowanceCharge, currency string) []xmlAllowanceCharge {
	var out []xmlAllowanceCharge
	for _, ac := range acs {
		entry := xmlAllowanceCharge{
			ChargeIndicator:       ac.Type == invoice.Charge,
			AllowanceChargeReason: ac.Reason,
			Amount:                amount(ac.Amount, currency),
		}
		if ac.Percentage != nil {
			entry.MultiplierFactor = ac.Percentage.StringFixed(2)
		}
		if ac.BaseAmount != nil {
			base := amount(*ac.BaseAmount, currency)
			entry.BaseAmount = &base
		}
		if ac.TaxCategory != "" {
			entry.TaxCategory = &xmlTaxCategory{
				ID:        ac.TaxCategory.SchemeCode(),
				Percent:   ratePercent(ac.TaxRate),
				TaxScheme: xmlTaxScheme{ID: "VAT"},
			}
		}
		out = append(out, entry)
	}
	return out
}

func buildTaxTotal(t *invoice.InvoiceTotals) xmlTaxTotal {
	total := xmlTaxTotal{TaxAmount: amount(t.TaxTotalAmount, t.Currency)}
	for _, entry := range t.TaxBreakdown {
		total.TaxSubtotal = append(total.TaxSubtotal, xmlTaxSubtotal{
			TaxableAmount: amount(entry.TaxableAmount, t.Currency),
			TaxAmount:     amount(entry.TaxAmount, t.Currency),
			TaxCategory: xmlTaxCategory{
				ID:        entry.TaxCategory.SchemeCode(),
				Percent:   ratePercent(entry.TaxRate),
				TaxScheme: xmlTaxScheme{ID: "VAT"},
			},
		})
	}
	return total
}

func buildMonetaryTotal(t *invoice.InvoiceTotals) xmlMonetaryTotal {
	return xmlMonetaryTotal{
		LineExtensionAmount: amount(t.LineExtensionAmount, t.Currency),
		TaxExclusiveAmount:  amount(t.TaxExclusiveAmount, t.Currency),
		TaxInclusiveAmount:  amount(t.TaxInclusiveAmount, t.Currency),
		AllowanceTotal:      amount(t.AllowanceTotal, t.Currency),
		ChargeTotal:         amount(t.ChargeTotal, t.Currency),
		PrepaidAmount:       amount(t.PrepaidAmount, t.Currency),
		PayableRounding:     amount(t.RoundingAmount, t.Currency),
		PayableAmount:       amount(t.PayableAmount, t.Currency),
	}
}

func buildInvoiceLine(item *invoice.LineItem, currency string) xmlInvoiceLine {
	unitCode := item.UnitCode
	if unitCode == "" {
		unitCode = "C62" // UN/ECE "one" unit
	}
	return xmlInvoiceLine{
		ID:                  item.ID,
		InvoicedQuantity:    xmlQuantity{Value: item.Quantity.String(), UnitCode: unitCode},
		LineExtensionAmount: amount(item.LineExtensionAmount, currency),
		TaxTotal:            xmlTaxTotal{TaxAmount: amount(item.TaxAmount, currency)},
		Item: xmlItem{
			Description: item.Description,
			Name:        item.Description,
			ClassifiedTaxCategory: xmlTaxCategory{
				ID:        item.TaxCategory.SchemeCode(),
				Percent:   ratePercent(item.TaxRate),
				TaxScheme: xmlTaxScheme{ID: "VAT"},
			},
		},
		Price: xmlPrice{PriceAmount: amount(item.UnitPrice, currency)},
	}
}

// amount formats a monetary value with exactly two decimal digits and its
// currency attribute.
func amount(d decimal.Decimal, currency string) xmlAmount {
	return xmlAmount{Value: d.StringFixed(2), CurrencyID: currency}
}

// ratePercent renders a fractional rate (0.05) as a percentage with two
// decimal digits (5.00).
func ratePercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2)
}
