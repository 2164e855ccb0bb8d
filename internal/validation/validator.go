// =============================================================================
// UBL-TR to XLSX Converter - Record Checks
// =============================================================================
//
// This module inspects extracted records for values an accountant should
// look at before filing. Checks never change or drop a record: a document
// that extracted cleanly always reaches the report. Findings are reported
// next to the per-document warnings.
//
// CHECKS (Deductible VAT List rows):
//   - Supplier name and tax id present; tax id is a 10-digit VKN or an
//     11-digit TCKN
//   - Invoice number present and in the 16-character e-Invoice layout
//   - Issue date present and recognised as a date
//   - Withholding does not exceed the VAT amount
//   - Line-level tax total agrees with the invoice VAT amount
//   - The withholding scan agrees with the first withholding block
//
// CHECKS (Stock List rows):
//   - Item name present
//   - Unit price not negative
//
// SEVERITY:
//   "warning" = likely a data problem in the invoice
//   "info"    = worth a look, often legitimate
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/ubltr"
)

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// invoiceNumberPattern is the e-Invoice number layout: a 3-character series,
// the 4-digit year and a 9-digit sequence.
var invoiceNumberPattern = regexp.MustCompile(`^[A-Z0-9]{3}[0-9]{13}$`)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single finding.
type ValidationError struct {
	Severity string

	// InvoiceNumber identifies the invoice the finding belongs to.
	InvoiceNumber string

	// Line is the 1-based Stock List row within the invoice; 0 for
	// invoice-level findings.
	Line int

	// Field is the record field that was checked.
	Field string

	// Value is the offending value.
	Value string

	// Rule is the name of the violated check.
	Rule string

	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	where := fmt.Sprintf("invoice %q", e.InvoiceNumber)
	if e.Line > 0 {
		where += fmt.Sprintf(", line %d", e.Line)
	}
	return fmt.Sprintf("[%s] %s, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		where,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the findings of a run.
type ValidationResult struct {
	Errors []*ValidationError

	WarningCount int
	InfoCount    int

	RecordsValidated int
}

// Clean reports whether there were no warnings.
func (r *ValidationResult) Clean() bool {
	return r.WarningCount == 0
}

func (r *ValidationResult) add(errs ...*ValidationError) {
	for _, err := range errs {
		r.Errors = append(r.Errors, err)
		if err.Severity == SeverityWarning {
			r.WarningCount++
		} else {
			r.InfoCount++
		}
	}
}

// =============================================================================
// MAIN VALIDATION FUNCTIONS
// =============================================================================

// ValidateAll checks every record of both tables.
func ValidateAll(aggregates []types.InvoiceAggregateRecord, lines []types.InvoiceLineRecord) *ValidationResult {
	result := &ValidationResult{
		Errors:           make([]*ValidationError, 0),
		RecordsValidated: len(aggregates) + len(lines),
	}

	for i := range aggregates {
		result.add(ValidateAggregate(&aggregates[i])...)
	}

	// Stock List rows are numbered per invoice.
	lineNo := 0
	prev := ""
	for i := range lines {
		if i == 0 || lines[i].InvoiceNumber != prev {
			lineNo = 0
			prev = lines[i].InvoiceNumber
		}
		lineNo++
		result.add(ValidateLine(&lines[i], lineNo)...)
	}

	return result
}

// ValidateAggregate checks a Deductible VAT List row.
func ValidateAggregate(rec *types.InvoiceAggregateRecord) []*ValidationError {
	var errs []*ValidationError
	finding := func(severity, field, value, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity:      severity,
			InvoiceNumber: rec.InvoiceNumber,
			Field:         field,
			Value:         value,
			Rule:          rule,
			Message:       message,
		})
	}

	if strings.TrimSpace(rec.SupplierName) == "" {
		finding(SeverityWarning, "SupplierName", rec.SupplierName, "required", "supplier name is missing")
	}

	switch {
	case rec.SupplierTaxID == "":
		finding(SeverityWarning, "SupplierTaxID", "", "required", "supplier has no VKN or TCKN identification")
	case !validateTaxID(rec.SupplierTaxID):
		finding(SeverityWarning, "SupplierTaxID", rec.SupplierTaxID, "tax_id", "expected a 10-digit VKN or an 11-digit TCKN")
	}

	switch {
	case rec.InvoiceNumber == "":
		finding(SeverityWarning, "InvoiceNumber", "", "required", "invoice number is missing")
	case !invoiceNumberPattern.MatchString(rec.InvoiceNumber):
		finding(SeverityInfo, "InvoiceNumber", rec.InvoiceNumber, "invoice_number", "not in the 16-character e-Invoice layout")
	}

	switch {
	case strings.TrimSpace(rec.IssueDate) == "":
		finding(SeverityWarning, "IssueDate", "", "required", "issue date is missing")
	case !ubltr.IsIssueDate(rec.IssueDate):
		finding(SeverityWarning, "IssueDate", rec.IssueDate, "date", "issue date is not a recognised date; copied as is")
	}

	if rec.WithholdingVATAmount.GreaterThan(rec.VATAmount) {
		finding(SeverityWarning, "WithholdingVATAmount", rec.WithholdingVATAmount.String(), "withholding_le_vat",
			fmt.Sprintf("withholding exceeds the VAT amount %s", rec.VATAmount.String()))
	}

	if !rec.LineTaxTotal.Equal(rec.VATAmount) {
		finding(SeverityInfo, "LineTaxTotal", rec.LineTaxTotal.String(), "vat_consistency",
			fmt.Sprintf("line tax total differs from the invoice VAT amount %s", rec.VATAmount.String()))
	}

	if !rec.ScannedWithholdingAmount.Equal(rec.WithholdingVATAmount) {
		finding(SeverityInfo, "ScannedWithholdingAmount", rec.ScannedWithholdingAmount.String(), "withholding_consistency",
			fmt.Sprintf("last withholding block differs from the first one (%s)", rec.WithholdingVATAmount.String()))
	}

	return errs
}

// ValidateLine checks a Stock List row. line is its position within the
// invoice, used for reporting.
func ValidateLine(rec *types.InvoiceLineRecord, line int) []*ValidationError {
	var errs []*ValidationError

	if strings.TrimSpace(rec.ItemName) == "" {
		errs = append(errs, &ValidationError{
			Severity:      SeverityInfo,
			InvoiceNumber: rec.InvoiceNumber,
			Line:          line,
			Field:         "ItemName",
			Rule:          "required",
			Message:       "item name is missing",
		})
	}

	if rec.UnitPrice.IsNegative() {
		errs = append(errs, &ValidationError{
			Severity:      SeverityWarning,
			InvoiceNumber: rec.InvoiceNumber,
			Line:          line,
			Field:         "UnitPrice",
			Value:         rec.UnitPrice.String(),
			Rule:          "non_negative",
			Message:       "unit price is negative",
		})
	}

	return errs
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// validateTaxID reports whether id is 10 (VKN) or 11 (TCKN) digits.
func validateTaxID(id string) bool {
	if len(id) != 10 && len(id) != 11 {
		return false
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No findings."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Checks completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
