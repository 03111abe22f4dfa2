package ubl

import "encoding/xml"

// UBL 2.1 namespaces and the billing profile identifiers the authority
// expects. The root namespace depends on the document type.
const (
	xmlnsInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	xmlnsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	xmlnsDebitNote  = "urn:oasis:names:specification:ubl:schema:xsd:DebitNote-2"
	xmlnsCAC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	xmlnsCBC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	// CustomizationID and ProfileID identify compliance with the FTA
	// e-invoicing billing profile.
	CustomizationID = "urn:ae:fta:einvoicing:2024"
	ProfileID       = "reporting:1.0"
)

// Identification scheme tags for party identifiers.
const (
	schemeTRN        = "TRN"
	schemeNationalID = "EID"
	schemeCommercial = "CRN"
)

// The three root documents share every aggregate component; only the root
// element name, its namespace, the type-code element and the line element
// differ, so each gets its own thin root struct.

type xmlInvoice struct {
	XMLName            xml.Name              `xml:"Invoice"`
	Xmlns              string                `xml:"xmlns,attr"`
	Cac                string                `xml:"xmlns:cac,attr"`
	Cbc                string                `xml:"xmlns:cbc,attr"`
	CustomizationID    string                `xml:"cbc:CustomizationID"`
	ProfileID          string                `xml:"cbc:ProfileID"`
	ID                 string                `xml:"cbc:ID"`
	IssueDate          string                `xml:"cbc:IssueDate"`
	DueDate            string                `xml:"cbc:DueDate,omitempty"`
	InvoiceTypeCode    string                `xml:"cbc:InvoiceTypeCode"`
	Notes              []string              `xml:"cbc:Note,omitempty"`
	DocumentCurrency   string                `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrency        string                `xml:"cbc:TaxCurrencyCode"`
	OrderReference     *xmlOrderReference    `xml:"cac:OrderReference,omitempty"`
	SupplierParty      xmlSupplierParty      `xml:"cac:AccountingSupplierParty"`
	CustomerParty      xmlCustomerParty      `xml:"cac:AccountingCustomerParty"`
	Delivery           *xmlDelivery          `xml:"cac:Delivery,omitempty"`
	PaymentMeans       *xmlPaymentMeans      `xml:"cac:PaymentMeans,omitempty"`
	AllowanceCharges   []xmlAllowanceCharge  `xml:"cac:AllowanceCharge,omitempty"`
	TaxTotal           xmlTaxTotal           `xml:"cac:TaxTotal"`
	LegalMonetaryTotal xmlMonetaryTotal      `xml:"cac:LegalMonetaryTotal"`
	Lines              []xmlInvoiceLine      `xml:"cac:InvoiceLine"`
}

type xmlCreditNote struct {
	XMLName            xml.Name             `xml:"CreditNote"`
	Xmlns              string               `xml:"xmlns,attr"`
	Cac                string               `xml:"xmlns:cac,attr"`
	Cbc                string               `xml:"xmlns:cbc,attr"`
	CustomizationID    string               `xml:"cbc:CustomizationID"`
	ProfileID          string               `xml:"cbc:ProfileID"`
	ID                 string               `xml:"cbc:ID"`
	IssueDate          string               `xml:"cbc:IssueDate"`
	DueDate            string               `xml:"cbc:DueDate,omitempty"`
	CreditNoteTypeCode string               `xml:"cbc:CreditNoteTypeCode"`
	Notes              []string             `xml:"cbc:Note,omitempty"`
	DocumentCurrency   string               `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrency        string               `xml:"cbc:TaxCurrencyCode"`
	OrderReference     *xmlOrderReference   `xml:"cac:OrderReference,omitempty"`
	BillingReference   *xmlBillingReference `xml:"cac:BillingReference,omitempty"`
	SupplierParty      xmlSupplierParty     `xml:"cac:AccountingSupplierParty"`
	CustomerParty      xmlCustomerParty     `xml:"cac:AccountingCustomerParty"`
	Delivery           *xmlDelivery         `xml:"cac:Delivery,omitempty"`
	PaymentMeans       *xmlPaymentMeans     `xml:"cac:PaymentMeans,omitempty"`
	AllowanceCharges   []xmlAllowanceCharge `xml:"cac:AllowanceCharge,omitempty"`
	TaxTotal           xmlTaxTotal          `xml:"cac:TaxTotal"`
	LegalMonetaryTotal xmlMonetaryTotal     `xml:"cac:LegalMonetaryTotal"`
	Lines              []xmlCreditNoteLine  `xml:"cac:CreditNoteLine"`
}

type xmlDebitNote struct {
	XMLName            xml.Name             `xml:"DebitNote"`
	Xmlns              string               `xml:"xmlns,attr"`
	Cac                string               `xml:"xmlns:cac,attr"`
	Cbc                string               `xml:"xmlns:cbc,attr"`
	CustomizationID    string               `xml:"cbc:CustomizationID"`
	ProfileID          string               `xml:"cbc:ProfileID"`
	ID                 string               `xml:"cbc:ID"`
	IssueDate          string               `xml:"cbc:IssueDate"`
	DueDate            string               `xml:"cbc:DueDate,omitempty"`
	DocumentTypeCode   string               `xml:"cbc:DocumentTypeCode"`
	Notes              []string             `xml:"cbc:Note,omitempty"`
	DocumentCurrency   string               `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrency        string               `xml:"cbc:TaxCurrencyCode"`
	OrderReference     *xmlOrderReference   `xml:"cac:OrderReference,omitempty"`
	BillingReference   *xmlBillingReference `xml:"cac:BillingReference,omitempty"`
	SupplierParty      xmlSupplierParty     `xml:"cac:AccountingSupplierParty"`
	CustomerParty      xmlCustomerParty     `xml:"cac:AccountingCustomerParty"`
	Delivery           *xmlDelivery         `xml:"cac:Delivery,omitempty"`
	PaymentMeans       *xmlPaymentMeans     `xml:"cac:PaymentMeans,omitempty"`
	AllowanceCharges   []xmlAllowanceCharge `xml:"cac:AllowanceCharge,omitempty"`
	TaxTotal           xmlTaxTotal          `xml:"cac:TaxTotal"`
	LegalMonetaryTotal xmlMonetaryTotal     `xml:"cac:LegalMonetaryTotal"`
	Lines              []xmlDebitNoteLine   `xml:"cac:DebitNoteLine"`
}

type xmlOrderReference struct {
	ID string `xml:"cbc:ID"`
}

type xmlBillingReference struct {
	InvoiceDocumentReference xmlDocumentReference `xml:"cac:InvoiceDocumentReference"`
}

type xmlDocumentReference struct {
	ID string `xml:"cbc:ID"`
}

type xmlSupplierParty struct {
	Party xmlParty `xml:"cac:Party"`
}

type xmlCustomerParty struct {
	Party xmlParty `xml:"cac:Party"`
}

type xmlParty struct {
	Identifications []xmlPartyIdentification `xml:"cac:PartyIdentification,omitempty"`
	PartyName       *xmlPartyName            `xml:"cac:PartyName,omitempty"`
	PostalAddress   xmlPostalAddress         `xml:"cac:PostalAddress"`
	PartyTaxScheme  *xmlPartyTaxScheme       `xml:"cac:PartyTaxScheme,omitempty"`
	LegalEntity     xmlPartyLegalEntity      `xml:"cac:PartyLegalEntity"`
	Contact         *xmlContact              `xml:"cac:Contact,omitempty"`
}

type xmlPartyIdentification struct {
	ID xmlSchemeValue `xml:"cbc:ID"`
}

// xmlSchemeValue is a value tagged with an identification scheme.
type xmlSchemeValue struct {
	Value    string `xml:",chardata"`
	SchemeID string `xml:"schemeID,attr"`
}

type xmlPartyName struct {
	Name string `xml:"cbc:Name"`
}

type xmlPostalAddress struct {
	StreetName           string     `xml:"cbc:StreetName"`
	AdditionalStreetName string     `xml:"cbc:AdditionalStreetName,omitempty"`
	BuildingNumber       string     `xml:"cbc:BuildingNumber,omitempty"`
	CityName             string     `xml:"cbc:CityName"`
	PostalZone           string     `xml:"cbc:PostalZone,omitempty"`
	CountrySubentity     string     `xml:"cbc:CountrySubentity"`
	Country              xmlCountry `xml:"cac:Country"`
}

type xmlCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type xmlPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme xmlTaxScheme `xml:"cac:TaxScheme"`
}

type xmlTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type xmlPartyLegalEntity struct {
	RegistrationName string `xml:"cbc:RegistrationName"`
	CompanyID        string `xml:"cbc:CompanyID,omitempty"`
}

type xmlContact struct {
	Name      string `xml:"cbc:Name,omitempty"`
	Telephone string `xml:"cbc:Telephone,omitempty"`
	Email     string `xml:"cbc:ElectronicMail,omitempty"`
}

type xmlDelivery struct {
	ActualDeliveryDate string               `xml:"cbc:ActualDeliveryDate,omitempty"`
	DeliveryLocation   *xmlDeliveryLocation `xml:"cac:DeliveryLocation,omitempty"`
}

type xmlDeliveryLocation struct {
	Address xmlPostalAddress `xml:"cac:Address"`
}

type xmlPaymentMeans struct {
	PaymentMeansCode      string               `xml:"cbc:PaymentMeansCode"`
	InstructionNote       string               `xml:"cbc:InstructionNote,omitempty"`
	PayeeFinancialAccount *xmlFinancialAccount `xml:"cac:PayeeFinancialAccount,omitempty"`
}

type xmlFinancialAccount struct {
	ID string `xml:"cbc:ID"`
}

type xmlAllowanceCharge struct {
	ChargeIndicator       bool            `xml:"cbc:ChargeIndicator"`
	AllowanceChargeReason string          `xml:"cbc:AllowanceChargeReason,omitempty"`
	MultiplierFactor      string          `xml:"cbc:MultiplierFactorNumeric,omitempty"`
	Amount                xmlAmount       `xml:"cbc:Amount"`
	BaseAmount            *xmlAmount      `xml:"cbc:BaseAmount,omitempty"`
	TaxCategory           *xmlTaxCategory `xml:"cac:TaxCategory,omitempty"`
}

type xmlTaxTotal struct {
	TaxAmount   xmlAmount        `xml:"cbc:TaxAmount"`
	TaxSubtotal []xmlTaxSubtotal `xml:"cac:TaxSubtotal,omitempty"`
}

type xmlTaxSubtotal struct {
	TaxableAmount xmlAmount      `xml:"cbc:TaxableAmount"`
	TaxAmount     xmlAmount      `xml:"cbc:TaxAmount"`
	TaxCategory   xmlTaxCategory `xml:"cac:TaxCategory"`
}

type xmlTaxCategory struct {
	ID        string       `xml:"cbc:ID"`
	Percent   string       `xml:"cbc:Percent"`
	TaxScheme xmlTaxScheme `xml:"cac:TaxScheme"`
}

type xmlMonetaryTotal struct {
	LineExtensionAmount xmlAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  xmlAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  xmlAmount `xml:"cbc:TaxInclusiveAmount"`
	AllowanceTotal      xmlAmount `xml:"cbc:AllowanceTotalAmount"`
	ChargeTotal         xmlAmount `xml:"cbc:ChargeTotalAmount"`
	PrepaidAmount       xmlAmount `xml:"cbc:PrepaidAmount"`
	PayableRounding     xmlAmount `xml:"cbc:PayableRoundingAmount"`
	PayableAmount       xmlAmount `xml:"cbc:PayableAmount"`
}

// xmlAmount is a monetary value with its mandatory currency attribute.
// Values are pre-formatted to exactly two decimal places.
type xmlAmount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type xmlQuantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type xmlInvoiceLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    xmlQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount xmlAmount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal            xmlTaxTotal `xml:"cac:TaxTotal"`
	Item                xmlItem     `xml:"cac:Item"`
	Price               xmlPrice    `xml:"cac:Price"`
}

type xmlCreditNoteLine struct {
	ID                  string      `xml:"cbc:ID"`
	CreditedQuantity    xmlQuantity `xml:"cbc:CreditedQuantity"`
	LineExtensionAmount xmlAmount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal            xmlTaxTotal `xml:"cac:TaxTotal"`
	Item                xmlItem     `xml:"cac:Item"`
	Price               xmlPrice    `xml:"cac:Price"`
}

type xmlDebitNoteLine struct {
	ID                  string      `xml:"cbc:ID"`
	DebitedQuantity     xmlQuantity `xml:"cbc:DebitedQuantity"`
	LineExtensionAmount xmlAmount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal            xmlTaxTotal `xml:"cac:TaxTotal"`
	Item                xmlItem     `xml:"cac:Item"`
	Price               xmlPrice    `xml:"cac:Price"`
}

type xmlItem struct {
	Description           string         `xml:"cbc:Description,omitempty"`
	Name                  string         `xml:"cbc:Name"`
	ClassifiedTaxCategory xmlTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type xmlPrice struct {
	PriceAmount xmlAmount `xml:"cbc:PriceAmount"`
}
