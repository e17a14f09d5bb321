package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	web2pdf "github.com/webpdf/go-web2pdf"
)

// doctorTimeout bounds the diagnostic launch. Generous because a first run
// may download a managed Chromium.
const doctorTimeout = 5 * time.Minute

// doctor verifies that a browser can be launched with the current settings.
func doctor(strategy web2pdf.LaunchStrategy, logger *slog.Logger) error {
	fmt.Println("Checking browser availability...")

	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	browser, err := strategy.Launch(ctx)
	if err != nil {
		fmt.Println("✗ browser launch failed")
		return err
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			logger.Warn("closing browser", "error", cerr)
		}
	}()

	version, err := browser.Version()
	if err != nil {
		fmt.Println("✗ browser launched but did not respond")
		return fmt.Errorf("%w: %v", web2pdf.ErrBrowserLaunch, err)
	}

	fmt.Printf("✓ %s ready (protocol %s)\n", version.Product, version.ProtocolVersion)
	return nil
}
