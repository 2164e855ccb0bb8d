// =============================================================================
// UBL-TR to XLSX Converter - XLSX Writer
// =============================================================================
//
// This module writes a report table to a single-sheet XLSX workbook.
//
// WORKBOOK LAYOUT:
//
//   | Header 1 | Header 2 | ... |   <- row 1, table headers in order
//   | cell     | cell     | ... |   <- one row per record
//
// Column widths are sized to content: the longest of the header and every
// stringified cell in the column, plus a fixed margin. Lengths are counted
// in characters, not bytes, so Turkish headers are not over-sized.
//
// =============================================================================

package xlsxwriter

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/report"
)

// ContentType is the MIME type of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// =============================================================================
// WRITER FUNCTIONS
// =============================================================================

// Write renders t as a workbook and writes it to w.
func Write(w io.Writer, t *report.Table, margin int) error {
	f, err := build(t, margin)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Bytes renders t as a workbook and returns its contents.
func Bytes(t *report.Table, margin int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t, margin); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveAs renders t as a workbook at path.
func SaveAs(path string, t *report.Table, margin int) error {
	f, err := build(t, margin)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// build creates the in-memory workbook. The caller closes it.
func build(t *report.Table, margin int) (*excelize.File, error) {
	if t == nil {
		return nil, fmt.Errorf("nil table")
	}

	f := excelize.NewFile()

	sheet := t.SheetName
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("invalid sheet name %q: %w", sheet, err)
		}
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	for i, width := range ColumnWidths(t, margin) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	return f, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ColumnWidths returns the width of every column of t: the character length
// of the longest header or cell, plus margin, capped at the spreadsheet
// maximum.
func ColumnWidths(t *report.Table, margin int) []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(cellString(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		widths[i] += margin
		if widths[i] > excelize.MaxColumnWidth {
			widths[i] = excelize.MaxColumnWidth
		}
	}
	return widths
}

// cellValue converts a table cell to a value excelize stores natively.
// Amounts become numbers.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.InexactFloat64()
	default:
		return v
	}
}

// cellString is the text used to size a cell's column.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
