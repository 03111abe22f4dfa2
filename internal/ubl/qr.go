package ubl

import (
	"encoding/base64"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/gulfbooks/einvoice/internal/invoice"
)

// TLV tags for the tax-invoice QR payload.
const (
	tlvSellerName = 1
	tlvSellerTRN  = 2
	tlvTimestamp  = 3
	tlvTotal      = 4
	tlvVATTotal   = 5
)

// QRPayload returns the base64-encoded TLV payload embedded in tax-invoice
// QR codes: seller name, seller TRN, issue timestamp (RFC 3339), tax-inclusive
// total and VAT total, each as a tag-length-value triple with a single-byte
// tag and length.
func QRPayload(inv *invoice.InvoiceData) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("qr payload: invoice is required")
	}

	fields := []struct {
		tag   byte
		value string
	}{
		{tlvSellerName, inv.Supplier.LegalName},
		{tlvSellerTRN, invoice.CleanTRN(inv.Supplier.TRN)},
		{tlvTimestamp, inv.IssueDate.UTC().Format(time.RFC3339)},
		{tlvTotal, inv.Totals.TaxInclusiveAmount.Round(2).StringFixed(2)},
		{tlvVATTotal, inv.Totals.TaxTotalAmount.Round(2).StringFixed(2)},
	}

	var buf []byte
	for _, f := range fields {
		b := []byte(f.value)
		if len(b) > 255 {
			return "", fmt.Errorf("qr payload: field %d exceeds 255 bytes", f.tag)
		}
		buf = append(buf, f.tag, byte(len(b)))
		buf = append(buf, b...)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// QRPNG renders the TLV payload as a PNG QR code of the given edge size in
// pixels.
func QRPNG(inv *invoice.InvoiceData, size int) ([]byte, error) {
	payload, err := QRPayload(inv)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
