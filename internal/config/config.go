// =============================================================================
// UBL-TR to XLSX Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file. Every
// setting has a default, so running without a configuration file is valid.
//
// CONFIGURATION FILE (config.yaml):
//
//   input_dir: ./input
//   output_dir: ./output
//   mode: aggregate
//   reports:
//     aggregate:
//       file_name: indirilecek_kdv_listesi.xlsx
//       sheet_name: Indirilecek_KDV_Listesi
//     lines:
//       file_name: stok_listesi.xlsx
//       sheet_name: Stok_Listesi
//   server:
//     port: 8080
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/logger"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.xml invoices when no files are given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the workbook and the warning log.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed invoices when ArchiveOnSuccess is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveOnSuccess moves every successfully processed invoice to
	// InputArchiveDir after the workbook is written.
	// Default: false
	ArchiveOnSuccess bool `yaml:"archive_on_success"`

	// ArchiveDateSubdirs files archived invoices under YYYY/MM/DD
	// subdirectories of InputArchiveDir.
	// Default: false
	ArchiveDateSubdirs bool `yaml:"archive_date_subdirs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "trace", "debug", "info", "warn", "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "console" or "json". Default: "console"
	LogFormat string `yaml:"log_format"`

	// LogOutput: "stderr", "stdout" or a file path. Default: "stderr"
	LogOutput string `yaml:"log_output"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Mode is the report produced when none is requested explicitly.
	// Valid values: "aggregate", "lines". Default: "aggregate"
	Mode types.ReportMode `yaml:"mode"`

	// MaxConcurrency is the number of invoices extracted in parallel.
	// Output order always follows input order. Default: 1
	MaxConcurrency int `yaml:"max_concurrency"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ColumnMargin is added to the widest cell of each column.
	// Default: 2
	ColumnMargin *int `yaml:"column_margin"`

	// OutputNameFormat optionally overrides the workbook file name.
	// Placeholders:
	//   {report}    - the report's configured file name without extension
	//   {uuid}      - a random UUID
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	// Empty means the fixed per-report file name.
	OutputNameFormat string `yaml:"output_name_format"`

	// Reports holds the per-mode file and sheet names.
	Reports ReportsConfig `yaml:"reports"`

	// Server configures the HTTP front end.
	Server ServerConfig `yaml:"server"`
}

// ReportsConfig holds the output settings of both report modes.
type ReportsConfig struct {
	Aggregate ReportConfig `yaml:"aggregate"`
	Lines     ReportConfig `yaml:"lines"`
}

// ReportConfig names the workbook and sheet for one report mode.
type ReportConfig struct {
	FileName  string `yaml:"file_name"`
	SheetName string `yaml:"sheet_name"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// MaxUploadMB caps the request body size. Default: 64
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Report returns the output settings for mode.
func (c *MainConfig) Report(mode types.ReportMode) ReportConfig {
	if mode == types.ModeLines {
		return c.Reports.Lines
	}
	return c.Reports.Aggregate
}

// Margin returns the configured column margin.
func (c *MainConfig) Margin() int {
	if c.ColumnMargin == nil {
		return DefaultColumnMargin
	}
	return *c.ColumnMargin
}

// LoggerConfig returns the logging settings.
func (c *MainConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultColumnMargin is the number of characters added to each column width.
const DefaultColumnMargin = 2

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var cfg MainConfig
	applyDefaults(&cfg)
	return &cfg
}

// Load reads the configuration from a YAML file. An empty path returns the
// defaults.
func Load(configPath string) (*MainConfig, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*MainConfig, error) {
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.LogOutput == "" {
		cfg.LogOutput = "stderr"
	}
	if cfg.Mode == "" {
		cfg.Mode = types.ModeAggregate
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.ColumnMargin == nil {
		margin := DefaultColumnMargin
		cfg.ColumnMargin = &margin
	}

	// Report defaults.
	if cfg.Reports.Aggregate.FileName == "" {
		cfg.Reports.Aggregate.FileName = "indirilecek_kdv_listesi.xlsx"
	}
	if cfg.Reports.Aggregate.SheetName == "" {
		cfg.Reports.Aggregate.SheetName = "Indirilecek_KDV_Listesi"
	}
	if cfg.Reports.Lines.FileName == "" {
		cfg.Reports.Lines.FileName = "stok_listesi.xlsx"
	}
	if cfg.Reports.Lines.SheetName == "" {
		cfg.Reports.Lines.SheetName = "Stok_Listesi"
	}

	// Server defaults.
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 64
	}
}

// Validate checks the configuration for values the converter cannot use.
func (c *MainConfig) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: mode %q must be %q or %q", ErrInvalidConfig, c.Mode, types.ModeAggregate, types.ModeLines)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("%w: max_concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Margin() < 0 {
		return fmt.Errorf("%w: column_margin must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("%w: server max_upload_mb must be at least 1", ErrInvalidConfig)
	}
	for _, r := range []ReportConfig{c.Reports.Aggregate, c.Reports.Lines} {
		if len(r.SheetName) > 31 {
			return fmt.Errorf("%w: sheet name %q exceeds 31 characters", ErrInvalidConfig, r.SheetName)
		}
	}
	return nil
}
