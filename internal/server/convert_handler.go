package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/report"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/xlsxwriter"
)

// Response headers of a successful conversion.
const (
	HeaderProcessedCount = "X-Processed-Count"
	HeaderWarningCount   = "X-Warning-Count"
)

// FormFieldFiles is the multipart field holding the invoices.
const FormFieldFiles = "files"

// handleConvert converts the uploaded invoices into one workbook.
// POST /api/v1/convert?mode=aggregate|lines
func (s *Server) handleConvert(c *fiber.Ctx) error {
	mode := types.ReportMode(c.Query("mode", string(s.cfg.Mode)))
	if !mode.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:    "INVALID_MODE",
			Message: fmt.Sprintf("mode must be %q or %q", types.ModeAggregate, types.ModeLines),
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "multipart form expected"})
	}
	headers := form.File[FormFieldFiles]
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:    "NO_FILES",
			Message: fmt.Sprintf("no files in form field %q", FormFieldFiles),
		})
	}

	inputs := make([]converter.Input, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "UNREADABLE_FILE", Message: err.Error()})
		}
		inputs = append(inputs, converter.Input{Name: fh.Filename, Data: data})
	}

	result, err := s.driver.Run(c.UserContext(), inputs, mode, nil)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Code: "INTERRUPTED", Message: err.Error()})
	}

	if !result.HasOutput() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Code:     "NO_RECORDS",
			Message:  "none of the uploaded invoices produced a record",
			Warnings: warningBodies(result.Warnings),
		})
	}

	rc := s.cfg.Report(mode)
	table := report.Build(mode, result.Aggregates, result.Lines, rc.SheetName)
	data, err := xlsxwriter.Bytes(table, s.cfg.Margin())
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}

	c.Set(HeaderProcessedCount, strconv.Itoa(result.Records()))
	c.Set(HeaderWarningCount, strconv.Itoa(len(result.Warnings)))
	c.Attachment(rc.FileName)
	c.Set(fiber.HeaderContentType, xlsxwriter.ContentType)
	return c.Status(fiber.StatusOK).Send(data)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func warningBodies(warnings []converter.Warning) []WarningBody {
	out := make([]WarningBody, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, WarningBody{File: w.File, Stage: string(w.Stage), Error: w.Err.Error()})
	}
	return out
}
