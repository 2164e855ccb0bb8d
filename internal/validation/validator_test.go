package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

func cleanAggregate() types.InvoiceAggregateRecord {
	return types.InvoiceAggregateRecord{
		IssueDate:                   "2024-03-15",
		DisplayDate:                 "15.03.2024",
		Period:                      "2024/03",
		InvoiceNumber:               "ABC2024000000001",
		SupplierName:                "Örnek A.Ş.",
		SupplierTaxID:               "1234567890",
		LineTaxTotal:                decimal.RequireFromString("18"),
		VATAmount:                   decimal.RequireFromString("18"),
		NonWithholdingVATDeductible: decimal.RequireFromString("18"),
		TotalDeductibleVAT:          decimal.RequireFromString("18"),
	}
}

func rules(errs []*ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field+":"+e.Rule)
	}
	return out
}

func TestValidateAggregate_Clean(t *testing.T) {
	rec := cleanAggregate()
	assert.Empty(t, ValidateAggregate(&rec))

	rec.SupplierTaxID = "12345678901"
	assert.Empty(t, ValidateAggregate(&rec))
}

func TestValidateAggregate_Findings(t *testing.T) {
	rec := cleanAggregate()
	rec.SupplierName = ""
	rec.SupplierTaxID = "12AB"
	rec.InvoiceNumber = "FTR-1"
	rec.IssueDate = "dün"
	rec.WithholdingVATAmount = decimal.RequireFromString("20")
	rec.ScannedWithholdingAmount = decimal.RequireFromString("20")
	rec.LineTaxTotal = decimal.RequireFromString("17.99")

	errs := ValidateAggregate(&rec)
	assert.Equal(t, []string{
		"SupplierName:required",
		"SupplierTaxID:tax_id",
		"InvoiceNumber:invoice_number",
		"IssueDate:date",
		"WithholdingVATAmount:withholding_le_vat",
		"LineTaxTotal:vat_consistency",
	}, rules(errs))

	for _, e := range errs {
		assert.Equal(t, "FTR-1", e.InvoiceNumber)
	}
}

func TestValidateAggregate_WithholdingScanDisagreement(t *testing.T) {
	rec := cleanAggregate()
	rec.WithholdingVATAmount = decimal.RequireFromString("9")
	rec.ScannedWithholdingAmount = decimal.RequireFromString("4.5")

	errs := ValidateAggregate(&rec)
	require.Len(t, errs, 1)
	assert.Equal(t, SeverityInfo, errs[0].Severity)
	assert.Equal(t, "withholding_consistency", errs[0].Rule)
}

func TestValidateAll(t *testing.T) {
	missing := cleanAggregate()
	missing.SupplierTaxID = ""
	missing.InvoiceNumber = "XYZ2024000000002"

	lines := []types.InvoiceLineRecord{
		{InvoiceNumber: "ABC2024000000001", ItemName: "Kalem"},
		{InvoiceNumber: "ABC2024000000001", ItemName: ""},
		{InvoiceNumber: "XYZ2024000000002", ItemName: "Silgi", UnitPrice: decimal.RequireFromString("-1")},
	}

	result := ValidateAll([]types.InvoiceAggregateRecord{cleanAggregate(), missing}, lines)

	assert.Equal(t, 5, result.RecordsValidated)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.WarningCount)
	assert.Equal(t, 1, result.InfoCount)
	assert.False(t, result.Clean())

	assert.Equal(t, "SupplierTaxID", result.Errors[0].Field)
	assert.Equal(t, 2, result.Errors[1].Line)
	assert.Equal(t, "ItemName", result.Errors[1].Field)
	assert.Equal(t, 1, result.Errors[2].Line)
	assert.Equal(t, "UnitPrice", result.Errors[2].Field)
}

func TestValidationError_Error(t *testing.T) {
	e := &ValidationError{Severity: SeverityWarning, InvoiceNumber: "A1", Line: 3, Field: "UnitPrice", Value: "-1", Message: "unit price is negative"}
	assert.Equal(t, `[WARNING] invoice "A1", line 3, field 'UnitPrice': unit price is negative (value: '-1')`, e.Error())
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No findings.", FormatErrors(nil))

	out := FormatErrors([]*ValidationError{{Severity: SeverityInfo, InvoiceNumber: "A1", Field: "ItemName", Message: "item name is missing"}})
	assert.Contains(t, out, "1 finding(s)")
	assert.Contains(t, out, "1. [INFO]")
}
