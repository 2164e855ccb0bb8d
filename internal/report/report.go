// =============================================================================
// UBL-TR to XLSX Converter - Report Tables
// =============================================================================
//
// This module turns extracted records into fixed-column tables. The column
// order is part of the output format and never depends on record fields.
//
// TABLES:
//   - Deductible VAT List ("İndirilecek KDV Listesi"): one row per invoice
//   - Stock List ("Stok Listesi"): one row per invoice line
//
// Amount cells hold decimal.Decimal values; the workbook writer stores them
// as numbers.
//
// =============================================================================

package report

import (
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

// Default sheet names.
const (
	AggregateSheetName = "Indirilecek_KDV_Listesi"
	LinesSheetName     = "Stok_Listesi"
)

// =============================================================================
// COLUMN DEFINITIONS
// =============================================================================

// AggregateHeaders is the column order of the Deductible VAT List.
var AggregateHeaders = []string{
	"Sıra No",
	"Alış Faturasının Tarihi",
	"Alış Faturasının Serisi",
	"Alış Faturasının Sıra No'su",
	"Satıcının Adı-Soyadı / Ünvanı",
	"Satıcının Vergi Kimlik Numarası / TC Kimlik Numarası",
	"Alınan Mal ve/veya Hizmetin Cinsi",
	"Alınan Mal ve/veya Hizmetin Miktarı",
	"Alınan Mal ve/veya Hizmetin KDV Hariç Tutarı",
	"KDV'si",
	"Tevkifatlı Faturanın Tevkifata Tabi Olmayan Ve Bu Dönemde İndirilen Kdv Tutarı",
	"2 Nolu Beyannamede Ödenen Kdv Tutarı",
	"Toplam İndirilen KDV Tutarı",
	"GGB Tescil No'su (Alış İthalat İse)",
	"Belgenin İndirim Hakkının Kullanıldığı KDV Dönemi",
}

// LineHeaders is the column order of the Stock List.
var LineHeaders = []string{
	"Fatura No",
	"Fatura Tarihi",
	"Satıcı",
	"Ürün/Hizmet",
	"Miktar",
	"Birim Fiyat",
}

// =============================================================================
// TABLE
// =============================================================================

// Table is a single-sheet report ready to be written.
type Table struct {
	SheetName string
	Headers   []string

	// Rows hold one cell per header. Cells are strings or decimal.Decimal.
	Rows [][]any
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// AggregateTable builds the Deductible VAT List.
func AggregateTable(records []types.InvoiceAggregateRecord) *Table {
	t := &Table{
		SheetName: AggregateSheetName,
		Headers:   AggregateHeaders,
		Rows:      make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{
			r.InvoiceNumber, // Sıra No repeats the full invoice number.
			r.DisplayDate,
			r.Series,
			r.InvoiceNumber,
			r.SupplierName,
			r.SupplierTaxID,
			r.ItemNamesJoined,
			r.QuantitiesJoined,
			r.LineExtensionTotal,
			r.VATAmount,
			r.NonWithholdingVATDeductible,
			r.WithholdingVATAmount,
			r.TotalDeductibleVAT,
			r.CustomsRegistrationNo,
			r.Period,
		})
	}
	return t
}

// LineTable builds the Stock List.
func LineTable(records []types.InvoiceLineRecord) *Table {
	t := &Table{
		SheetName: LinesSheetName,
		Headers:   LineHeaders,
		Rows:      make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{
			r.InvoiceNumber,
			r.DisplayDate,
			r.SupplierName,
			r.ItemName,
			r.Quantity,
			r.UnitPrice,
		})
	}
	return t
}

// Build returns the table for mode. sheetName overrides the default sheet
// name when non-empty.
func Build(mode types.ReportMode, aggregates []types.InvoiceAggregateRecord, lines []types.InvoiceLineRecord, sheetName string) *Table {
	var t *Table
	if mode == types.ModeLines {
		t = LineTable(lines)
	} else {
		t = AggregateTable(aggregates)
	}
	if sheetName != "" {
		t.SheetName = sheetName
	}
	return t
}
