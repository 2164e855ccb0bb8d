// =============================================================================
// UBL-TR to XLSX Converter - Shared Types
// =============================================================================
//
// This package contains the record types produced by the extractors and
// consumed by the report tables. They live here to avoid import cycles
// between:
//   - ubltr
//   - converter
//   - report
//
// Records are plain values. They never point back at the XML document they
// were extracted from.
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// REPORT MODES
// =============================================================================

// ReportMode selects which of the two tables a batch produces.
type ReportMode string

const (
	// ModeAggregate produces the Deductible VAT List (one row per invoice).
	ModeAggregate ReportMode = "aggregate"

	// ModeLines produces the Stock List (one row per invoice line).
	ModeLines ReportMode = "lines"
)

// Valid reports whether m is one of the known report modes.
func (m ReportMode) Valid() bool {
	return m == ModeAggregate || m == ModeLines
}

// =============================================================================
// AGGREGATE RECORD
// =============================================================================

// InvoiceAggregateRecord is the one-row-per-invoice summary used by the
// Deductible VAT List.
type InvoiceAggregateRecord struct {
	// IssueDate is the raw cbc:IssueDate text.
	IssueDate string

	// DisplayDate is IssueDate formatted as DD.MM.YYYY, or the raw text when
	// it does not parse as a date.
	DisplayDate string

	// Period is the VAT period (YYYY/MM) the deduction is claimed in.
	Period string

	// Series is always empty: the full identifier goes to InvoiceNumber.
	Series string

	// InvoiceNumber is the full cbc:ID of the invoice.
	InvoiceNumber string

	SupplierName  string
	SupplierTaxID string

	// ItemNamesJoined and QuantitiesJoined hold one token per invoice line,
	// joined with ", ".
	ItemNamesJoined  string
	QuantitiesJoined string

	// LineExtensionTotal is the sum of every cbc:LineExtensionAmount.
	LineExtensionTotal decimal.Decimal

	// LineTaxTotal is the sum of every line-level cac:TaxTotal/cbc:TaxAmount.
	// It is not required to agree with VATAmount.
	LineTaxTotal decimal.Decimal

	// VATAmount is the first tax-subtotal amount of the first top-level
	// cac:TaxTotal. Zero when absent.
	VATAmount decimal.Decimal

	// WithholdingVATAmount is the tax amount of the first top-level
	// cac:WithholdingTaxTotal. Zero when absent.
	WithholdingVATAmount decimal.Decimal

	// NonWithholdingVATDeductible is VATAmount minus WithholdingVATAmount when
	// both are present, VATAmount otherwise.
	NonWithholdingVATDeductible decimal.Decimal

	// TotalDeductibleVAT mirrors VATAmount for its own output column.
	TotalDeductibleVAT decimal.Decimal

	// CustomsRegistrationNo is the GGB number for imports. UBL-TR purchase
	// invoices do not carry it, so it is always empty.
	CustomsRegistrationNo string

	// ScannedWithholdingAmount and ScannedVATAmount come from the scan over
	// every cac:WithholdingTaxTotal in the document (last match wins).
	// They are carried for inspection only; the report columns use
	// VATAmount and WithholdingVATAmount.
	ScannedWithholdingAmount decimal.Decimal
	ScannedVATAmount         decimal.Decimal
}

// =============================================================================
// LINE RECORD
// =============================================================================

// InvoiceLineRecord is one row of the Stock List.
type InvoiceLineRecord struct {
	InvoiceNumber string
	DisplayDate   string
	SupplierName  string
	ItemName      string

	// Quantity is the quantity and its translated unit label, e.g. "5 Adet".
	Quantity string

	// UnitPrice is the first cac:Price/cbc:PriceAmount. Zero when absent.
	UnitPrice decimal.Decimal
}
