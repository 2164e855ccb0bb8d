package ubltr

import (
	"fmt"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

var pathPriceAmount = MustCompile("cac:Price/cbc:PriceAmount", UBL)

// ExtractLines parses one invoice and builds one Stock List row per line.
func ExtractLines(data []byte) ([]types.InvoiceLineRecord, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.LineRecords()
}

// LineRecords builds one Stock List row per cac:InvoiceLine, in document
// order.
func (d *Document) LineRecords() ([]types.InvoiceLineRecord, error) {
	number := d.InvoiceNumber()
	date := FormatDisplayDate(d.IssueDate())
	supplier := d.SupplierName()

	lines := d.Lines()
	records := make([]types.InvoiceLineRecord, 0, len(lines))
	for i, line := range lines {
		price, _, err := Amount(line, pathPriceAmount)
		if err != nil {
			return nil, newParseError("ExtractLines", err, fmt.Sprintf("invoice line %d", i+1))
		}
		records = append(records, types.InvoiceLineRecord{
			InvoiceNumber: number,
			DisplayDate:   date,
			SupplierName:  supplier,
			ItemName:      itemName(line),
			Quantity:      quantityLabel(line),
			UnitPrice:     price,
		})
	}
	return records, nil
}
