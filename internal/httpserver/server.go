// Package httpserver exposes the conversion core over HTTP. Route handlers
// are deliberately thin: validation, rendering, and usage accounting all
// live in the web2pdf package; this layer only maps errors to status codes.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	web2pdf "github.com/webpdf/go-web2pdf"
)

// ConversionService is the slice of the web2pdf facade the handlers need.
type ConversionService interface {
	GeneratePDF(ctx context.Context, in web2pdf.Input) ([]byte, error)
	ExtractPageTitle(ctx context.Context, url string) string
	CheckUsageLimit(ctx context.Context, userID string) (web2pdf.UsageStatus, error)
	IncrementUsage(ctx context.Context, userID string) (web2pdf.UsageRecord, error)
	UpgradePlan(ctx context.Context, userID string, plan web2pdf.Plan) (web2pdf.UsageRecord, error)
}

// Compile-time interface check.
var _ ConversionService = (*web2pdf.Service)(nil)

// Server wraps echo with the conversion routes.
type Server struct {
	echo   *echo.Echo
	svc    ConversionService
	logger *slog.Logger
}

// New builds the HTTP server around svc.
func New(svc ConversionService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestID)

	s := &Server{echo: e, svc: svc, logger: logger}

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/pdf", s.handleGeneratePDF)
	e.GET("/v1/usage/:user", s.handleUsage)
	e.POST("/v1/usage/:user/plan", s.handleUpgradePlan)

	return s
}

// Start begins serving on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// requestID stamps every request with a correlation id.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

type generateRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	UserID  string `json:"user_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type limitResponse struct {
	Error string `json:"error"`
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleGeneratePDF runs the full conversion flow: quota check, render,
// title extraction, increment. The PDF bytes are the response body; the
// sanitized filename travels in Content-Disposition.
func (s *Server) handleGeneratePDF(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()

	if req.UserID != "" {
		status, err := s.svc.CheckUsageLimit(ctx, req.UserID)
		if err != nil {
			return s.fail(c, err)
		}
		if !status.Allowed {
			return c.JSON(http.StatusTooManyRequests, limitResponse{
				Error: "monthly conversion limit reached",
				Used:  status.Record.ConversionsUsed,
				Limit: status.Limit,
			})
		}
	}

	pdf, err := s.svc.GeneratePDF(ctx, web2pdf.Input{
		URL:     req.URL,
		Quality: req.Quality,
		UserID:  req.UserID,
	})
	if err != nil {
		return s.fail(c, err)
	}

	title := s.svc.ExtractPageTitle(ctx, req.URL)

	if req.UserID != "" {
		if _, err := s.svc.IncrementUsage(ctx, req.UserID); err != nil {
			// The render already succeeded; surfacing the storage failure
			// beats silently under-counting.
			return s.fail(c, err)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+web2pdf.PDFFilename(title)+`"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) handleUsage(c echo.Context) error {
	status, err := s.svc.CheckUsageLimit(c.Request().Context(), c.Param("user"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":          status.Record.UserID,
		"plan_type":        status.Record.Plan,
		"conversions_used": status.Record.ConversionsUsed,
		"limit":            status.Limit,
		"allowed":          status.Allowed,
		"last_reset":       status.Record.LastReset,
	})
}

type upgradeRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleUpgradePlan(c echo.Context) error {
	var req upgradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	plan, err := web2pdf.ParsePlan(req.Plan)
	if err != nil {
		return s.fail(c, err)
	}

	rec, err := s.svc.UpgradePlan(c.Request().Context(), c.Param("user"), plan)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":          rec.UserID,
		"plan_type":        rec.Plan,
		"conversions_used": rec.ConversionsUsed,
	})
}

// fail maps core errors onto HTTP status codes.
func (s *Server) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// statusFor classifies core errors per the taxonomy: invalid input 400,
// unreachable target 400, timeout 408, infrastructure 503, storage 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, web2pdf.ErrInvalidURL),
		errors.Is(err, web2pdf.ErrInvalidQuality),
		errors.Is(err, web2pdf.ErrUnknownPlan),
		errors.Is(err, web2pdf.ErrEmptyUserID),
		errors.Is(err, web2pdf.ErrNavigation):
		return http.StatusBadRequest
	case errors.Is(err, web2pdf.ErrRenderTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, web2pdf.ErrBrowserLaunch),
		errors.Is(err, web2pdf.ErrQueueFull),
		errors.Is(err, web2pdf.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
