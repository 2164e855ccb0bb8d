// =============================================================================
// UBL-TR to XLSX Converter - HTTP Server
// =============================================================================
//
// This module exposes the converter over HTTP so invoices can be uploaded
// from a browser or another service and the workbook downloaded directly.
//
// ROUTES:
//   GET  /health                                  liveness probe
//   POST /api/v1/convert?mode=aggregate|lines     multipart upload, field "files"
//
// RESPONSES (convert):
//   200 the workbook as an attachment, with X-Processed-Count and
//       X-Warning-Count headers
//   400 bad mode, missing files or unreadable upload
//   422 no document produced a record; the body lists the warnings
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/converter"
)

// HeaderRequestID carries the request id on every response.
const HeaderRequestID = "X-Request-ID"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Warnings []WarningBody `json:"warnings,omitempty"`
}

// WarningBody is a per-document warning as rendered in JSON.
type WarningBody struct {
	File  string `json:"file"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Server is the HTTP front end of the converter.
type Server struct {
	app    *fiber.App
	cfg    *config.MainConfig
	driver *converter.Driver
	log    zerolog.Logger
}

// New builds the server and registers its routes.
func New(cfg *config.MainConfig, log zerolog.Logger) *Server {
	s := &Server{
		cfg: cfg,
		driver: converter.New(
			converter.WithConcurrency(cfg.MaxConcurrency),
			converter.WithLogger(log),
		),
		log: log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ubltr-xlsx",
		BodyLimit:             cfg.Server.MaxUploadMB * 1024 * 1024,
		ReadTimeout:           time.Second * 60,
		WriteTimeout:          time.Second * 60,
		IdleTimeout:           time.Second * 60,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api/v1")
	api.Post("/convert", s.handleConvert)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address until Shutdown is called.
func (s *Server) Listen() error {
	addr := s.cfg.Server.Addr()
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(HeaderRequestID, id)

	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	s.log.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	return err
}

// handleError renders errors returned by handlers and middleware.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	errCode := "INTERNAL"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		switch code {
		case fiber.StatusRequestEntityTooLarge:
			errCode = "TOO_LARGE"
		case fiber.StatusNotFound:
			errCode = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			errCode = "METHOD_NOT_ALLOWED"
		default:
			if code < fiber.StatusInternalServerError {
				errCode = "BAD_REQUEST"
			}
		}
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(ErrorResponse{Code: errCode, Message: err.Error()})
}
