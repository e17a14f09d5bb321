package web2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrInvalidURL     = errors.New("url must be an absolute http or https URL")
	ErrInvalidQuality = errors.New("invalid quality tier")
	ErrBrowserLaunch  = errors.New("failed to launch browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrNavigation     = errors.New("page navigation failed")
	ErrRenderTimeout  = errors.New("render deadline exceeded")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// Queue admission errors.
	ErrQueueFull   = errors.New("render queue is full")
	ErrQueueClosed = errors.New("render queue is closed")

	// Service lifecycle errors.
	ErrServiceClosed = errors.New("service is closed")

	// Usage accounting errors.
	ErrStorage       = errors.New("usage storage failure")
	ErrUsageNotFound = errors.New("usage record not found")
	ErrUnknownPlan   = errors.New("unknown plan type")
	ErrEmptyUserID   = errors.New("user id cannot be empty")
)
