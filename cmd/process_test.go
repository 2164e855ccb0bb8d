package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/pkg/utils"
)

func invoiceFile(t *testing.T, dir, name, number string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:ID>%s</cbc:ID>
  <cbc:IssueDate>2024-03-15</cbc:IssueDate>
  <cac:AccountingSupplierParty><cac:Party>
    <cac:PartyIdentification><cbc:ID schemeID="VKN">1234567890</cbc:ID></cac:PartyIdentification>
    <cac:PartyName><cbc:Name>Tedarikçi</cbc:Name></cac:PartyName>
  </cac:Party></cac:AccountingSupplierParty>
  <cac:TaxTotal>
    <cbc:TaxAmount currencyID="TRY">18.00</cbc:TaxAmount>
    <cac:TaxSubtotal><cbc:TaxAmount currencyID="TRY">18.00</cbc:TaxAmount></cac:TaxSubtotal>
  </cac:TaxTotal>
  <cac:InvoiceLine>
    <cbc:InvoicedQuantity unitCode="C62">5</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="TRY">100.00</cbc:LineExtensionAmount>
    <cac:TaxTotal><cbc:TaxAmount currencyID="TRY">18.00</cbc:TaxAmount></cac:TaxTotal>
    <cac:Item><cbc:Name>Kırtasiye</cbc:Name></cac:Item>
    <cac:Price><cbc:PriceAmount currencyID="TRY">20.00</cbc:PriceAmount></cac:Price>
  </cac:InvoiceLine>
</Invoice>`, number)), 0644))
	return path
}

func brokenFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("<Invoice><broken>"), 0644))
	return path
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// runCLI executes the root command with args. Command flags keep their
// values between runs, so every call sets them all.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose = false
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func rowsOf(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestProcess_AggregateWithMalformedFile(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	target := filepath.Join(outDir, "kdv.xlsx")

	a := invoiceFile(t, in, "a.xml", "ABC2024000000001")
	b := brokenFile(t, in, "b.xml")
	c := invoiceFile(t, in, "c.xml", "ABC2024000000003")

	out, err := runCLI(t, "process", "--config", "", "--mode", "aggregate", "--output", target, "--dry-run=false", a, b, c)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ [1/3] a.xml")
	assert.Contains(t, out, "✗ [2/3] b.xml")
	assert.Contains(t, out, "2 invoices processed.")
	assert.Contains(t, out, "Skipped:         1")

	rows := rowsOf(t, target, "Indirilecek_KDV_Listesi")
	require.Len(t, rows, 3)
	assert.Equal(t, "ABC2024000000001", rows[1][0])
	assert.Equal(t, "ABC2024000000003", rows[2][0])

	logs, err := filepath.Glob(filepath.Join(outDir, "warning_log_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), b)
}

func TestProcess_LinesFromInputDirWithArchive(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "input")
	require.NoError(t, os.Mkdir(in, 0755))
	invoiceFile(t, in, "a.xml", "ABC2024000000001")
	brokenFile(t, in, "b.xml")

	cfgPath := writeConfig(t, root, fmt.Sprintf(`
input_dir: %s
output_dir: %s
input_archive_dir: %s
archive_on_success: true
mode: lines
`, in, filepath.Join(root, "output"), filepath.Join(root, "archive")))

	out, err := runCLI(t, "process", "--config", cfgPath, "--mode", "", "--output", "", "--dry-run=false")
	require.NoError(t, err)
	assert.Contains(t, out, "1 stock rows created.")

	rows := rowsOf(t, filepath.Join(root, "output", "stok_listesi.xlsx"), "Stok_Listesi")
	require.Len(t, rows, 2)
	assert.Equal(t, "5 Adet", rows[1][4])

	assert.True(t, utils.FileExists(filepath.Join(root, "archive", "a.xml")))
	assert.False(t, utils.FileExists(filepath.Join(in, "a.xml")))
	assert.True(t, utils.FileExists(filepath.Join(in, "b.xml")))
}

func TestProcess_ArchiveDateSubdirs(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "input")
	archive := filepath.Join(root, "archive")
	require.NoError(t, os.Mkdir(in, 0755))
	invoiceFile(t, in, "a.xml", "ABC2024000000001")

	cfgPath := writeConfig(t, root, fmt.Sprintf(`
input_dir: %s
output_dir: %s
input_archive_dir: %s
archive_on_success: true
archive_date_subdirs: true
`, in, filepath.Join(root, "output"), archive))

	_, err := runCLI(t, "process", "--config", cfgPath, "--mode", "", "--output", "", "--dry-run=false")
	require.NoError(t, err)

	archived, err := filepath.Glob(filepath.Join(archive, "*", "*", "*", "a.xml"))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	rel, err := filepath.Rel(archive, archived[0])
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2}/a\.xml$`, filepath.ToSlash(rel))
	assert.False(t, utils.FileExists(filepath.Join(archive, "a.xml")))
}

func TestProcess_VerboseListsFindings(t *testing.T) {
	in := t.TempDir()
	target := filepath.Join(t.TempDir(), "kdv.xlsx")
	a := invoiceFile(t, in, "a.xml", "FTR-1")

	out, err := runCLI(t, "process", "--config", "", "--verbose=true", "--mode", "aggregate", "--output", target, "--dry-run=true", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Checks completed with 1 finding(s)")
	assert.Contains(t, out, `[INFO] invoice "FTR-1", field 'InvoiceNumber'`)

	out, err = runCLI(t, "process", "--config", "", "--mode", "aggregate", "--output", target, "--dry-run=true", a)
	require.NoError(t, err)
	assert.NotContains(t, out, "Checks completed")
}

func TestProcess_DryRunWritesNothing(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	target := filepath.Join(outDir, "stok.xlsx")
	a := invoiceFile(t, in, "a.xml", "ABC2024000000001")

	out, err := runCLI(t, "process", "--config", "", "--mode", "lines", "--output", target, "--dry-run=true", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: would write "+target)
	assert.False(t, utils.FileExists(target))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcess_NoRecords(t *testing.T) {
	in := t.TempDir()
	target := filepath.Join(t.TempDir(), "kdv.xlsx")
	b := brokenFile(t, in, "b.xml")

	out, err := runCLI(t, "process", "--config", "", "--mode", "aggregate", "--output", target, "--dry-run=false", b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoRecords))
	assert.Contains(t, out, "no workbook written")
	assert.False(t, utils.FileExists(target))
}

func TestProcess_InvalidMode(t *testing.T) {
	a := invoiceFile(t, t.TempDir(), "a.xml", "ABC2024000000001")

	_, err := runCLI(t, "process", "--config", "", "--mode", "pdf", "--output", "", "--dry-run=false", a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestProcess_UnreadableInputAborts(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.xml")

	_, err := runCLI(t, "process", "--config", "", "--mode", "aggregate", "--output", "", "--dry-run=false", missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "UBL-TR to XLSX Converter")
	assert.Contains(t, out, "Version:    "+Version)
}

func TestRecordSummary(t *testing.T) {
	assert.Equal(t, "3 invoices processed.", recordSummary("aggregate", 3))
	assert.Equal(t, "7 stock rows created.", recordSummary("lines", 7))
}
