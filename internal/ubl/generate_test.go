package ubl

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gulfbooks/einvoice/internal/invoice"
	"github.com/gulfbooks/einvoice/internal/testutil"
)

func TestGenerateInvoiceXML_Invoice(t *testing.T) {
	inv := testutil.FixtureInvoice("INV-2026-0001")

	doc, err := GenerateInvoiceXML(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	xmlStr := string(doc.XML)

	if !strings.HasPrefix(xmlStr, "<?xml") {
		t.Error("document must begin with the XML header")
	}
	if !strings.Contains(xmlStr, "<Invoice xmlns=\"urn:oasis:names:specification:ubl:schema:xsd:Invoice-2\"") {
		t.Error("root element must be Invoice in the UBL invoice namespace")
	}
	for _, want := range []string{
		"<cbc:ID>INV-2026-0001</cbc:ID>",
		"<cbc:IssueDate>2026-03-15</cbc:IssueDate>",
		"<cbc:InvoiceTypeCode>380</cbc:InvoiceTypeCode>",
		"<cbc:DocumentCurrencyCode>AED</cbc:DocumentCurrencyCode>",
		"<cbc:CompanyID>100123456789014</cbc:CompanyID>",
		"<cac:AccountingSupplierParty>",
		"<cac:AccountingCustomerParty>",
		"<cbc:TaxAmount currencyID=\"AED\">5.00</cbc:TaxAmount>",
		"<cbc:PayableAmount currencyID=\"AED\">105.00</cbc:PayableAmount>",
		"<cbc:Percent>5.00</cbc:Percent>",
		"<cbc:InvoicedQuantity unitCode=\"C62\">2</cbc:InvoicedQuantity>",
	} {
		if !strings.Contains(xmlStr, want) {
			t.Errorf("document missing %s", want)
		}
	}

	if doc.InvoiceNumber != "INV-2026-0001" {
		t.Errorf("InvoiceNumber = %q", doc.InvoiceNumber)
	}
}

func TestGenerateInvoiceXML_CreditNote(t *testing.T) {
	inv := testutil.FixtureInvoice("CN-2026-0001")
	inv.DocumentType = invoice.DocumentTypeCreditNote
	inv.OriginalInvoiceNumber = "INV-2026-0001"

	doc, err := GenerateInvoiceXML(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	xmlStr := string(doc.XML)
	if !strings.Contains(xmlStr, "<CreditNote xmlns=\"urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2\"") {
		t.Error("root element must be CreditNote in the UBL credit note namespace")
	}
	if !strings.Contains(xmlStr, "<cbc:CreditNoteTypeCode>381</cbc:CreditNoteTypeCode>") {
		t.Error("credit note must carry type code 381")
	}
	if !strings.Contains(xmlStr, "<cac:BillingReference>") ||
		!strings.Contains(xmlStr, "<cbc:ID>INV-2026-0001</cbc:ID>") {
		t.Error("credit note must embed the original invoice reference")
	}
	if !strings.Contains(xmlStr, "<cbc:CreditedQuantity unitCode=\"C62\">2</cbc:CreditedQuantity>") {
		t.Error("credit note lines use CreditedQuantity")
	}
}

func TestGenerateInvoiceXML_DebitNote(t *testing.T) {
	inv := testutil.FixtureInvoice("DN-2026-0001")
	inv.DocumentType = invoice.DocumentTypeDebitNote
	inv.OriginalInvoiceNumber = "INV-2026-0001"

	doc, err := GenerateInvoiceXML(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	xmlStr := string(doc.XML)
	if !strings.Contains(xmlStr, "<DebitNote xmlns=\"urn:oasis:names:specification:ubl:schema:xsd:DebitNote-2\"") {
		t.Error("root element must be DebitNote in the UBL debit note namespace")
	}
	if !strings.Contains(xmlStr, "<cbc:DocumentTypeCode>383</cbc:DocumentTypeCode>") {
		t.Error("debit note must carry type code 383")
	}
}

func TestGenerateInvoiceXML_InvalidInvoiceProducesNoDocument(t *testing.T) {
	inv := testutil.FixtureInvoice("INV-2026-0002")
	inv.InvoiceNumber = ""
	inv.Supplier.LegalName = ""

	doc, err := GenerateInvoiceXML(inv)
	if doc != nil {
		t.Fatal("no partial document may be produced for an invalid invoice")
	}

	var verrs invoice.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected aggregated validation errors, got %T: %v", err, err)
	}
	if len(verrs) < 2 {
		t.Errorf("expected all findings to be aggregated, got %v", verrs)
	}
}

func TestGenerateInvoiceXML_HashIsStable(t *testing.T) {
	first, err := GenerateInvoiceXML(testutil.FixtureInvoice("INV-2026-0003"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GenerateInvoiceXML(testutil.FixtureInvoice("INV-2026-0003"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Hash) != 64 || strings.ToLower(first.Hash) != first.Hash {
		t.Errorf("hash must be 64 lowercase hex characters, got %q", first.Hash)
	}
	if first.Hash != second.Hash {
		t.Error("identical input must produce an identical hash")
	}
	if !bytes.Equal(first.XML, second.XML) {
		t.Error("identical input must produce identical bytes")
	}
}

func TestGenerateInvoiceXML_HashChangesWithAmounts(t *testing.T) {
	base, err := GenerateInvoiceXML(testutil.FixtureInvoice("INV-2026-0004"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed := testutil.FixtureInvoice("INV-2026-0004")
	changed.LineItems[0].UnitPrice = decimal.NewFromInt(25)
	changed.LineItems[0].Quantity = decimal.NewFromInt(4)

	other, err := GenerateInvoiceXML(changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.Hash == other.Hash {
		t.Error("changing a monetary field must change the hash")
	}
}

func TestQRPayload(t *testing.T) {
	inv := testutil.FixtureInvoice("INV-2026-0005")
	inv.IssueDate = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	payload, err := QRPayload(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload must be valid base64: %v", err)
	}

	// Walk the TLV triples.
	fields := map[byte]string{}
	for i := 0; i < len(raw); {
		tag := raw[i]
		length := int(raw[i+1])
		fields[tag] = string(raw[i+2 : i+2+length])
		i += 2 + length
	}

	if fields[1] != "Gulf Books Trading LLC" {
		t.Errorf("tag 1 (seller) = %q", fields[1])
	}
	if fields[2] != "100123456789014" {
		t.Errorf("tag 2 (TRN) = %q", fields[2])
	}
	if fields[3] != "2026-03-15T09:30:00Z" {
		t.Errorf("tag 3 (timestamp) = %q", fields[3])
	}
	if fields[4] != "105.00" {
		t.Errorf("tag 4 (total) = %q", fields[4])
	}
	if fields[5] != "5.00" {
		t.Errorf("tag 5 (VAT) = %q", fields[5])
	}
}

func TestQRPNG(t *testing.T) {
	png, err := QRPNG(testutil.FixtureInvoice("INV-2026-0006"), 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}
