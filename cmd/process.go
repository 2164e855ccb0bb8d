// =============================================================================
// UBL-TR to XLSX Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts a batch of
// invoices into a single workbook.
//
// COMMAND USAGE:
//   ubltr-xlsx process [files...] [flags]
//
// FLAGS:
//   --mode      : aggregate (Deductible VAT List) or lines (Stock List)
//   --output    : Workbook path (default: <output_dir>/<report file name>)
//   --dry-run   : Convert and report without writing any file
//
// PROCESSING PIPELINE:
//   1. Resolve the input files (arguments, or *.xml in the input directory)
//   2. Read every file; an unreadable file aborts the run
//   3. Extract both record sets from every invoice
//   4. Check the records
//   5. Write the workbook for the selected mode
//   6. Write the warning log and archive clean inputs
//   7. Print the summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/logger"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/report"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/xlsxwriter"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/pkg/utils"
)

// errNoRecords is returned when no invoice produced a record for the
// selected mode.
var errNoRecords = errors.New("no records produced; no workbook written")

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// modeFlag selects the report; empty means the configured mode.
	modeFlag string

	// outputPath overrides the workbook location.
	outputPath string

	// dryRun converts without writing any file.
	dryRun bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Convert UBL-TR invoices to an XLSX list",
	Long: `The process command converts the given invoices, or every *.xml file in the
input directory, into one workbook.

Each invoice is processed independently. An invoice that cannot be parsed is
listed with the reason and left out of the workbook; the others are still
converted.

On completion:
  - The workbook is written to the output directory
  - A warning log is written next to it when any invoice was skipped
  - Clean invoices are moved to the input archive when archive_on_success is set,
    under YYYY/MM/DD subdirectories when archive_date_subdirs is set

With --verbose the record check findings are listed after the progress lines.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&modeFlag,
		"mode",
		"m",
		"",
		"Report to produce: aggregate or lines (default from config)",
	)

	processCmd.Flags().StringVarP(
		&outputPath,
		"output",
		"o",
		"",
		"Workbook path (default: <output_dir>/<report file name>)",
	)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Convert and report without writing any file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates one conversion run.
func runProcess(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()
	cfg := appConfig
	log := logger.WithComponent("process")

	// =========================================================================
	// STEP 1: RESOLVE MODE AND INPUT FILES
	// =========================================================================

	mode := cfg.Mode
	if modeFlag != "" {
		mode = types.ReportMode(strings.ToLower(modeFlag))
	}
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q: must be %q or %q", modeFlag, types.ModeAggregate, types.ModeLines)
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveOnSuccess && !dryRun
	fm.UseTimestampSubdirs = cfg.ArchiveDateSubdirs

	files := args
	if len(files) == 0 {
		discovered, err := fm.DiscoverInputFiles(".xml")
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		files = discovered
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No XML files found in %s.\n", cfg.InputDir)
		return nil
	}

	fmt.Fprintln(out, "=== UBL-TR to XLSX Converter ===")
	fmt.Fprintf(out, "Mode: %s\n", modeTitle(mode))
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(files))

	// =========================================================================
	// STEP 2: READ INPUTS
	// =========================================================================

	inputs, err := readInputs(files)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: EXTRACT
	// =========================================================================

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := converter.New(
		converter.WithConcurrency(cfg.MaxConcurrency),
		converter.WithLogger(logger.WithComponent("converter")),
	)

	fmt.Fprintln(out, "Processing files...")
	result, err := driver.Run(ctx, inputs, mode, func(p converter.Progress) {
		mark := "✓"
		if p.Failed {
			mark = "✗"
		}
		fmt.Fprintf(out, "  %s [%d/%d] %s\n", mark, p.Done, p.Total, filepath.Base(p.File))
	})
	if err != nil {
		return err
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(w.File), w.Err)
		}
	}

	// =========================================================================
	// STEP 4: CHECK RECORDS
	// =========================================================================

	checks := validation.ValidateAll(result.Aggregates, result.Lines)
	for _, finding := range checks.Errors {
		event := log.Debug()
		if finding.Severity == validation.SeverityWarning {
			event = log.Warn()
		}
		event.Str("invoice", finding.InvoiceNumber).
			Str("field", finding.Field).
			Str("rule", finding.Rule).
			Msg(finding.Message)
	}
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s", validation.FormatErrors(checks.Errors))
	}

	// =========================================================================
	// STEP 5: WRITE THE WORKBOOK
	// =========================================================================

	target := resolveOutputPath(cfg, mode)
	table := report.Build(mode, result.Aggregates, result.Lines, cfg.Report(mode).SheetName)

	if result.HasOutput() && !dryRun {
		if outputPath == "" {
			if err := fm.EnsureDirectories(); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := xlsxwriter.SaveAs(target, table, cfg.Margin()); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 6: WARNING LOG AND ARCHIVAL
	// =========================================================================

	logPath := ""
	if !dryRun {
		logPath, err = writeWarningLog(result, checks, filepath.Dir(target))
		if err != nil {
			log.Error().Err(err).Msg("warning log not written")
		}

		if result.HasOutput() {
			for _, fr := range result.Files {
				if !fr.OK() {
					continue
				}
				if _, err := fm.ArchiveInputFile(fr.Name); err != nil {
					log.Error().Err(err).Str("file", fr.Name).Msg("archive failed")
				}
			}
		}
	}

	// =========================================================================
	// STEP 7: PRINT SUMMARY
	// =========================================================================

	printSummary(out, summary{
		mode:     mode,
		result:   result,
		checks:   checks,
		output:   target,
		logPath:  logPath,
		dryRun:   dryRun,
		duration: time.Since(startTime),
	})

	if !result.HasOutput() {
		return errNoRecords
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readInputs loads every file into memory.
func readInputs(files []string) ([]converter.Input, error) {
	inputs := make([]converter.Input, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		inputs = append(inputs, converter.Input{Name: path, Data: data})
	}
	return inputs, nil
}

// resolveOutputPath returns the --output flag, or the configured file name
// for mode inside the output directory.
func resolveOutputPath(cfg *config.MainConfig, mode types.ReportMode) string {
	if outputPath != "" {
		return outputPath
	}

	name := cfg.Report(mode).FileName
	if cfg.OutputNameFormat != "" {
		name = utils.GenerateOutputFileName(cfg.OutputNameFormat, map[string]string{
			"report": strings.TrimSuffix(name, filepath.Ext(name)),
			"mode":   string(mode),
		}, ".xlsx")
	}
	return filepath.Join(cfg.OutputDir, name)
}

// writeWarningLog records skipped invoices and check warnings in dir.
func writeWarningLog(result *converter.Result, checks *validation.ValidationResult, dir string) (string, error) {
	now := time.Now()
	var entries []utils.ErrorLogEntry

	for _, w := range result.Warnings {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     w.File,
			Stage:        string(w.Stage),
			ErrorMessage: w.Err.Error(),
		})
	}
	for _, finding := range checks.Errors {
		if finding.Severity != validation.SeverityWarning {
			continue
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     finding.InvoiceNumber,
			Stage:        "check",
			ErrorMessage: finding.Error(),
		})
	}

	if len(entries) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return utils.WriteErrorLog(entries, dir)
}

type summary struct {
	mode     types.ReportMode
	result   *converter.Result
	checks   *validation.ValidationResult
	output   string
	logPath  string
	dryRun   bool
	duration time.Duration
}

func printSummary(out io.Writer, s summary) {
	stats := s.result.Stats

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", stats.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", stats.ProcessedFiles-stats.FailedFiles)
	fmt.Fprintf(out, "Skipped:         %d\n", stats.FailedFiles)
	fmt.Fprintf(out, "Check warnings:  %d\n", s.checks.WarningCount)
	fmt.Fprintf(out, "Time elapsed:    %s\n", s.duration.Round(time.Millisecond))

	if !s.result.HasOutput() {
		fmt.Fprintln(out, "\nNo records produced; no workbook written.")
	} else {
		fmt.Fprintf(out, "\n%s\n", recordSummary(s.mode, s.result.Records()))
		if s.dryRun {
			fmt.Fprintf(out, "Dry run: would write %s\n", s.output)
		} else {
			fmt.Fprintf(out, "Output: %s\n", s.output)
		}
	}

	if s.logPath != "" {
		fmt.Fprintf(out, "Warnings have been logged to %s\n", s.logPath)
	}
}

// recordSummary is the one-line success message of a run.
func recordSummary(mode types.ReportMode, n int) string {
	if mode == types.ModeLines {
		return fmt.Sprintf("%d stock rows created.", n)
	}
	return fmt.Sprintf("%d invoices processed.", n)
}

func modeTitle(mode types.ReportMode) string {
	if mode == types.ModeLines {
		return "Stok Listesi (lines)"
	}
	return "İndirilecek KDV Listesi (aggregate)"
}

// cmdContext returns the command's context, or Background when run outside
// ExecuteContext.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
