package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.False(t, cfg.ArchiveDateSubdirs)
	assert.Equal(t, types.ModeAggregate, cfg.Mode)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.Equal(t, 2, cfg.Margin())
	assert.Equal(t, "indirilecek_kdv_listesi.xlsx", cfg.Report(types.ModeAggregate).FileName)
	assert.Equal(t, "stok_listesi.xlsx", cfg.Report(types.ModeLines).FileName)
	assert.Equal(t, "Indirilecek_KDV_Listesi", cfg.Report(types.ModeAggregate).SheetName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /data/in
archive_on_success: true
archive_date_subdirs: true
mode: lines
max_concurrency: 4
column_margin: 0
log_format: json
reports:
  lines:
    file_name: stok.xlsx
server:
  port: 9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.True(t, cfg.ArchiveOnSuccess)
	assert.True(t, cfg.ArchiveDateSubdirs)
	assert.Equal(t, types.ModeLines, cfg.Mode)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 0, cfg.Margin())
	assert.Equal(t, "json", cfg.LoggerConfig().Format)
	assert.Equal(t, "stok.xlsx", cfg.Report(types.ModeLines).FileName)
	assert.Equal(t, "Stok_Listesi", cfg.Report(types.ModeLines).SheetName)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"mode":        "mode: pdf",
		"concurrency": "max_concurrency: -2",
		"margin":      "column_margin: -1",
		"port":        "server:\n  port: 70000",
		"sheet":       "reports:\n  aggregate:\n    sheet_name: abcdefghijklmnopqrstuvwxyz0123456789",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.True(t, errors.Is(err, ErrInvalidConfig), name)
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("mode: [unterminated"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}
