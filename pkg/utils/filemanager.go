// =============================================================================
// UBL-TR to XLSX Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter:
//   - Invoice discovery in the input directory
//   - Input archival (moving processed invoices)
//   - Output file naming
//   - Warning log generation
//
// ARCHIVAL STRATEGY:
//   - Invoices are moved to input_archive only when archival is enabled and
//     the invoice produced no warnings
//   - Failed invoices remain in their original location
//   - Warning logs are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is scanned for invoices when no files are named explicitly.
	InputDir string

	// OutputDir receives workbooks and warning logs.
	OutputDir string

	// InputArchiveDir receives archived invoices.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/fatura.xml
	UseTimestampSubdirs bool

	// ArchiveOnSuccess enables archival of processed invoices.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
// Archival is disabled until ArchiveOnSuccess is set.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory, and the archive directory
// when archival is enabled.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the regular files in the input directory whose
// extension matches extension, case-insensitively. An empty extension means
// ".xml". Results are sorted by name so batches are reproducible.
func (fm *FileManager) DiscoverInputFiles(extension string) ([]string, error) {
	if extension == "" {
		extension = ".xml"
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			result = append(result, filepath.Join(fm.InputDir, entry.Name()))
		}
	}
	sort.Strings(result)

	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory and returns
// its new path. It is a no-op when archival is disabled.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name format.
//
// Placeholders:
//
//	{uuid}      - a random UUID
//	{timestamp} - current timestamp (YYYYMMDD_HHMMSS)
//	{date}      - current date (YYYYMMDD)
//	{time}      - current time (HHMMSS)
//	{<key>}     - any entry of params
//
// The result always ends in extension.
//
// EXAMPLE:
//
//	format: "{report}_{timestamp}"
//	params: {"report": "stok_listesi"}
//	output: "stok_listesi_20240115_143022.xlsx"
func GenerateOutputFileName(format string, params map[string]string, extension string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if extension != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}

	return result
}

// =============================================================================
// WARNING LOG GENERATION
// =============================================================================

// ErrorLogEntry is a single entry of the warning log.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	Stage        string
	ErrorMessage string
}

// WriteErrorLog writes entries to a timestamped log file in outputDir and
// returns its path. Nothing is written when entries is empty.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logFileName := fmt.Sprintf("warning_log_%s.txt", time.Now().Format("20060102_150405"))
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create warning log: %w", err)
	}
	defer file.Close()

	if err := FormatErrorLog(file, entries); err != nil {
		return "", err
	}

	return logPath, nil
}

// FormatErrorLog writes the warning log body to w.
func FormatErrorLog(w io.Writer, entries []ErrorLogEntry) error {
	writer := bufio.NewWriter(w)

	fmt.Fprintf(writer, "UBL-TR to XLSX Converter - Warning Log\n"+
		"Generated: %s\n"+
		"Total Warnings: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Warning #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName)
		if entry.Stage != "" {
			fmt.Fprintf(writer, "  Stage:          %s\n", entry.Stage)
		}
		fmt.Fprintf(writer, "  Message:        %s\n\n", entry.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Warning Log\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush warning log: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
