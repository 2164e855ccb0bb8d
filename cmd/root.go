// =============================================================================
// UBL-TR to XLSX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ubltr-xlsx)
//   ├── processCmd (ubltr-xlsx process)
//   ├── serveCmd   (ubltr-xlsx serve)
//   └── versionCmd (ubltr-xlsx version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/logger"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig is loaded by the root command before any subcommand runs.
var appConfig *config.MainConfig

// logCloser releases the log file, if logging to one.
var logCloser io.Closer

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ubltr-xlsx",
	Short: "UBL-TR to XLSX Converter - Build VAT and stock lists from e-Invoices",
	Long: `UBL-TR to XLSX Converter reads Turkish e-Invoice (UBL-TR) XML files and
produces one of two spreadsheets:

  aggregate  Deductible VAT List (İndirilecek KDV Listesi), one row per invoice
  lines      Stock List (Stok Listesi), one row per invoice line

Invoices that cannot be read are reported and skipped; the rest of the batch
is still converted.

Example Usage:
  ubltr-xlsx process                          # Convert every XML in the input directory
  ubltr-xlsx process --mode lines a.xml b.xml # Stock List from two invoices
  ubltr-xlsx serve --port 8080                # Upload invoices over HTTP`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initConfig(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
			logCloser = nil
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file; built-in defaults apply when the default file is absent",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads the configuration and sets up the global logger.
func initConfig(cmd *cobra.Command) error {
	path := cfgFile
	if !cmd.Flags().Changed("config") && !utils.FileExists(path) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	closer, err := logger.Setup(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appConfig = cfg
	logCloser = closer

	if path != "" {
		log.Debug().Str("config", path).Msg("configuration loaded")
	}
	return nil
}
