// Package server exposes the summarization pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vidbrief/vidbrief/internal/pipeline"
	"github.com/vidbrief/vidbrief/internal/summarize"
)

// allowedExtensions is the upload allowlist, lowercase with leading dot.
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 10 * time.Second

// Processor is the slice of the pipeline the HTTP layer needs.
type Processor interface {
	Process(ctx context.Context, videoPath string, style summarize.Style, translateOut bool) (pipeline.Result, error)
	SummarizeTranscript(ctx context.Context, transcript string, style summarize.Style) (string, error)
	Translate(ctx context.Context, text string) string
}

// Compile-time interface compliance check.
var _ Processor = (*pipeline.Pipeline)(nil)

// Config holds the HTTP layer settings.
type Config struct {
	Addr        string
	CORSOrigins string
	UploadDir   string
}

// Server wires the fiber app, the pipeline, and request validation.
type Server struct {
	cfg      Config
	proc     Processor
	log      *logrus.Logger
	validate *validator.Validate
	app      *fiber.App
}

// New creates the Server and registers all routes.
func New(cfg Config, proc Processor, log *logrus.Logger) (*Server, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		proc:     proc,
		log:      log,
		validate: validator.New(),
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             512 * 1024 * 1024, // uploads are whole videos
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(s.requestLogger)

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Post("/upload-video", s.handleUpload)
	app.Post("/process-video", s.handleProcess)
	app.Post("/summarize-transcript", s.handleSummarizeTranscript)
	app.Post("/translate", s.handleTranslate)
	app.Delete("/cleanup/:filename", s.handleCleanup)

	s.app = app
	return s, nil
}

// App returns the underlying fiber app (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.cfg.Addr).Info("http server listening")
		return s.app.Listen(s.cfg.Addr)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down http server")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.WithFields(logrus.Fields{
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   c.Response().StatusCode(),
		"duration": time.Since(start).String(),
	}).Info("request")
	return err
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Video Summarizer API is running"})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// handleUpload stores an uploaded video under a unique name and returns
// the stored filename for use with /process-video.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return errorResponse(c, fiber.StatusBadRequest,
			fmt.Errorf("invalid file type %q, allowed: .mp4, .avi, .mov, .mkv, .webm", ext))
	}

	stored := uuid.New().String() + "_" + filepath.Base(file.Filename)
	dest := filepath.Join(s.cfg.UploadDir, stored)
	if err := c.SaveFile(file, dest); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
	}

	s.log.WithFields(logrus.Fields{"filename": stored, "size": file.Size}).Info("video uploaded")

	return c.JSON(fiber.Map{
		"filename": stored,
		"size":     file.Size,
		"message":  "Video uploaded successfully",
	})
}

// handleProcess runs the full pipeline on a previously uploaded video.
func (s *Server) handleProcess(c *fiber.Ctx) error {
	filename := c.Query("filename")
	if filename == "" {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("filename query parameter is required"))
	}

	videoPath, err := s.uploadPath(filename)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return errorResponse(c, fiber.StatusNotFound, errors.New("video file not found"))
	}

	style := summarize.ParseStyle(c.Query("summary_type"))
	translateOut := c.QueryBool("translate")

	result, err := s.proc.Process(c.Context(), videoPath, style, translateOut)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(result)
}

// summarizeRequest is the /summarize-transcript request body.
type summarizeRequest struct {
	Transcript  string `json:"transcript" validate:"required"`
	SummaryType string `json:"summary_type"`
	Translate   bool   `json:"translate"`
}

// handleSummarizeTranscript summarizes an existing transcript.
func (s *Server) handleSummarizeTranscript(c *fiber.Ctx) error {
	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	if err := s.validate.Struct(req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
	}

	style := summarize.ParseStyle(req.SummaryType)
	summary, err := s.proc.SummarizeTranscript(c.Context(), req.Transcript, style)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}
	if req.Translate {
		summary = s.proc.Translate(c.Context(), summary)
	}

	return c.JSON(fiber.Map{
		"summary":      summary,
		"summary_type": style,
	})
}

// translateRequest is the /translate request body.
type translateRequest struct {
	Text string `json:"text" validate:"required"`
}

// handleTranslate translates text to English. Always succeeds: failed
// translation returns the original text.
func (s *Server) handleTranslate(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	if err := s.validate.Struct(req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
	}

	return c.JSON(fiber.Map{
		"translated_text": s.proc.Translate(c.Context(), req.Text),
	})
}

// handleCleanup deletes an uploaded video.
func (s *Server) handleCleanup(c *fiber.Ctx) error {
	videoPath, err := s.uploadPath(c.Params("filename"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	if err := os.Remove(videoPath); err != nil {
		if os.IsNotExist(err) {
			return errorResponse(c, fiber.StatusNotFound, errors.New("file not found"))
		}
		return errorResponse(c, fiber.StatusInternalServerError, fmt.Errorf("delete file: %w", err))
	}

	return c.JSON(fiber.Map{"message": "File deleted successfully"})
}

// uploadPath resolves filename inside the upload directory, rejecting
// anything that would escape it.
func (s *Server) uploadPath(filename string) (string, error) {
	decoded, err := normalizeFilename(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.UploadDir, decoded), nil
}

// normalizeFilename rejects path separators and traversal elements.
func normalizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", errors.New("filename is required")
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", errors.New("invalid filename")
	}
	return filename, nil
}

// errorResponse writes the uniform error body.
func errorResponse(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}
