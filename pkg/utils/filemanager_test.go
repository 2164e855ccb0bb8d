package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<Invoice/>"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xml"))
	touch(t, filepath.Join(dir, "a.XML"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "c.xml"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.xml"), 0755))

	fm := NewFileManager(dir, t.TempDir(), t.TempDir())
	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.XML"), filepath.Join(dir, "b.xml")}, files)

	txt, err := fm.DiscoverInputFiles(".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, txt)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "absent"), "", "")
	_, err := fm.DiscoverInputFiles("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestArchiveInputFile(t *testing.T) {
	in := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	src := filepath.Join(in, "fatura.xml")
	touch(t, src)

	fm := NewFileManager(in, t.TempDir(), archive)

	// Disabled archival leaves the file in place.
	path, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, path)
	assert.True(t, FileExists(src))

	fm.ArchiveOnSuccess = true
	require.NoError(t, fm.EnsureDirectories())
	path, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "fatura.xml"), path)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(path))
}

func TestArchiveInputFile_TimestampSubdirs(t *testing.T) {
	in := t.TempDir()
	archive := t.TempDir()
	src := filepath.Join(in, "fatura.xml")
	touch(t, src)

	fm := NewFileManager(in, t.TempDir(), archive)
	fm.ArchiveOnSuccess = true
	fm.UseTimestampSubdirs = true

	path, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	rel, err := filepath.Rel(archive, path)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/fatura\.xml$`), filepath.ToSlash(rel))
}

func TestGenerateOutputFileName(t *testing.T) {
	assert.Equal(t, "stok_listesi.xlsx",
		GenerateOutputFileName("{report}", map[string]string{"report": "stok_listesi"}, ".xlsx"))
	assert.Equal(t, "liste.xlsx", GenerateOutputFileName("liste.xlsx", nil, ".xlsx"))
	assert.Equal(t, "liste.XLSX", GenerateOutputFileName("liste.XLSX", nil, ".xlsx"))

	name := GenerateOutputFileName("{report}_{timestamp}", map[string]string{"report": "kdv"}, ".xlsx")
	assert.Regexp(t, `^kdv_\d{8}_\d{6}\.xlsx$`, name)

	name = GenerateOutputFileName("{uuid}", nil, ".xlsx")
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.xlsx$`, name)
}

func TestWriteErrorLog(t *testing.T) {
	path, err := WriteErrorLog(nil, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)

	dir := t.TempDir()
	path, err = WriteErrorLog([]ErrorLogEntry{
		{Timestamp: time.Now(), FileName: "b.xml", Stage: "parse", ErrorMessage: "malformed XML"},
		{Timestamp: time.Now(), FileName: "c.xml", ErrorMessage: "invalid amount"},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Total Warnings: 2")
	assert.Contains(t, content, "b.xml")
	assert.Contains(t, content, "Stage:          parse")
	assert.Contains(t, content, "invalid amount")
	assert.Contains(t, content, "End of Warning Log")
}

func TestFormatErrorLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatErrorLog(&buf, []ErrorLogEntry{{FileName: "x.xml", ErrorMessage: "boom"}}))
	assert.Contains(t, buf.String(), "Warning #1")
	assert.NotContains(t, buf.String(), "Stage:")
}
