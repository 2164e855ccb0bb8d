package ubltr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

var (
	pathLineExtensionAmount = MustCompile("cbc:LineExtensionAmount", UBL)
	pathLineTaxAmount       = MustCompile("cac:TaxTotal/cbc:TaxAmount", UBL)

	pathTaxTotal    = MustCompile("cac:TaxTotal", UBL)
	pathTaxSubtotal = MustCompile("cac:TaxSubtotal", UBL)
	pathTaxAmount   = MustCompile("cbc:TaxAmount", UBL)

	pathWithholdingTaxTotal    = MustCompile("cac:WithholdingTaxTotal", UBL)
	pathAnyWithholdingTaxTotal = MustCompile(".//cac:WithholdingTaxTotal", UBL)
	pathSubtotalTaxableAmount  = MustCompile("cac:TaxSubtotal/cbc:TaxableAmount", UBL)
)

// ExtractAggregate parses one invoice and builds its Deductible VAT List row.
func ExtractAggregate(data []byte) (types.InvoiceAggregateRecord, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return types.InvoiceAggregateRecord{}, err
	}
	return doc.Aggregate()
}

// Aggregate builds the Deductible VAT List row for the document.
func (d *Document) Aggregate() (types.InvoiceAggregateRecord, error) {
	const op = "ExtractAggregate"

	issueDate := d.IssueDate()
	supplier := d.SupplierParty()

	rec := types.InvoiceAggregateRecord{
		IssueDate:     issueDate,
		DisplayDate:   FormatDisplayDate(issueDate),
		Period:        FormatPeriod(issueDate),
		InvoiceNumber: d.InvoiceNumber(),
		SupplierName:  Text(supplier, pathPartyName),
		SupplierTaxID: TaxID(supplier),
	}

	lines := d.Lines()
	names := make([]string, 0, len(lines))
	quantities := make([]string, 0, len(lines))
	lineExtension := decimal.Zero
	lineTax := decimal.Zero

	for i, line := range lines {
		names = append(names, itemName(line))
		quantities = append(quantities, quantityLabel(line))

		amount, _, err := Amount(line, pathLineExtensionAmount)
		if err != nil {
			return types.InvoiceAggregateRecord{}, newParseError(op, err, fmt.Sprintf("invoice line %d", i+1))
		}
		lineExtension = lineExtension.Add(amount)

		tax, _, err := Amount(line, pathLineTaxAmount)
		if err != nil {
			return types.InvoiceAggregateRecord{}, newParseError(op, err, fmt.Sprintf("invoice line %d", i+1))
		}
		lineTax = lineTax.Add(tax)
	}

	rec.ItemNamesJoined = strings.Join(names, ", ")
	rec.QuantitiesJoined = strings.Join(quantities, ", ")
	rec.LineExtensionTotal = lineExtension
	rec.LineTaxTotal = lineTax

	scannedWithholding, scannedVAT, err := d.scanWithholding(lineTax)
	if err != nil {
		return types.InvoiceAggregateRecord{}, wrapParseError(op, err)
	}
	rec.ScannedWithholdingAmount = scannedWithholding
	rec.ScannedVATAmount = scannedVAT

	vat, vatPresent, err := d.vatAmount()
	if err != nil {
		return types.InvoiceAggregateRecord{}, wrapParseError(op, err)
	}
	withholding, withholdingPresent, err := d.withholdingVATAmount()
	if err != nil {
		return types.InvoiceAggregateRecord{}, wrapParseError(op, err)
	}

	rec.VATAmount = vat
	rec.WithholdingVATAmount = withholding
	rec.TotalDeductibleVAT = vat
	rec.NonWithholdingVATDeductible = nonWithholdingDeductible(vat, vatPresent, withholding, withholdingPresent)

	return rec, nil
}

// scanWithholding walks every cac:WithholdingTaxTotal in the document. Each
// one carrying a tax amount replaces the running withholding figure, and
// each one carrying a subtotal taxable amount replaces the running VAT
// figure, which starts out as the sum of the line taxes.
//
// TODO: decide with the reporting owners whether this scan should replace
// the first-block lookup in withholdingVATAmount for invoices with several
// withholding blocks.
func (d *Document) scanWithholding(lineTax decimal.Decimal) (withholding, vat decimal.Decimal, err error) {
	withholding = decimal.Zero
	vat = lineTax
	for _, block := range pathAnyWithholdingTaxTotal.All(d.root) {
		amount, ok, err := Amount(block, pathTaxAmount)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if ok {
			withholding = amount
		}

		taxable, ok, err := Amount(block, pathSubtotalTaxableAmount)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if ok {
			vat = taxable
		}
	}
	return withholding, vat, nil
}

// vatAmount reads the tax amount of the first subtotal of the first
// top-level cac:TaxTotal.
func (d *Document) vatAmount() (decimal.Decimal, bool, error) {
	subtotal := pathTaxSubtotal.First(pathTaxTotal.First(d.root))
	return Amount(subtotal, pathTaxAmount)
}

// withholdingVATAmount reads the tax amount of the first top-level
// cac:WithholdingTaxTotal.
func (d *Document) withholdingVATAmount() (decimal.Decimal, bool, error) {
	return Amount(pathWithholdingTaxTotal.First(d.root), pathTaxAmount)
}

func nonWithholdingDeductible(vat decimal.Decimal, vatPresent bool, withholding decimal.Decimal, withholdingPresent bool) decimal.Decimal {
	switch {
	case vatPresent && withholdingPresent:
		return vat.Sub(withholding)
	case vatPresent:
		return vat
	default:
		return decimal.Zero
	}
}
