package main

import (
	"errors"
	"os"

	web2pdf "github.com/webpdf/go-web2pdf"
)

// Exit codes for the web2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, URL, or quality
	ExitIO      = 3 // Output file errors
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, web2pdf.ErrBrowserLaunch) ||
		errors.Is(err, web2pdf.ErrPageCreate) ||
		errors.Is(err, web2pdf.ErrNavigation) ||
		errors.Is(err, web2pdf.ErrRenderTimeout) ||
		errors.Is(err, web2pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, errWritePDF) {
		return ExitIO
	}

	// Usage/validation errors (exit 2)
	if errors.Is(err, web2pdf.ErrInvalidURL) ||
		errors.Is(err, web2pdf.ErrInvalidQuality) ||
		errors.Is(err, errNoURL) {
		return ExitUsage
	}

	return ExitGeneral
}
