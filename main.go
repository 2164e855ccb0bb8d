// =============================================================================
// UBL-TR to XLSX Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   ubltr-xlsx process   - Convert invoices to a Deductible VAT or Stock List
//   ubltr-xlsx serve     - Run the HTTP upload endpoint
//   ubltr-xlsx version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : extraction, batch driver, reports, workbook, HTTP
//   - pkg/           : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/cmd"
)

func main() {
	cmd.Execute()
}
