package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	web2pdf "github.com/webpdf/go-web2pdf"
)

// Sentinel errors for CLI operations.
var (
	errNoURL    = errors.New("no URL given")
	errWritePDF = errors.New("failed to write PDF")
)

// run executes the conversion (or doctor check) described by flags.
func run(flags *cliFlags, args []string) error {
	if flags.version {
		fmt.Println("web2pdf", Version)
		return nil
	}

	logger := newLogger(flags.verbose)
	strategy := launchStrategy(flags)

	if flags.doctor {
		return doctor(strategy, logger)
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: usage: web2pdf [flags] URL", errNoURL)
	}
	rawURL := args[0]

	svc := web2pdf.NewService(
		web2pdf.WithLaunchStrategy(strategy),
		web2pdf.WithLogger(logger),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing service", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	pdf, err := svc.GeneratePDF(ctx, web2pdf.Input{URL: rawURL, Quality: flags.quality})
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		title := svc.ExtractPageTitle(ctx, rawURL)
		output = web2pdf.PDFFilename(title)
	}

	if err := os.WriteFile(output, pdf, 0o644); err != nil {
		return fmt.Errorf("%w: %v", errWritePDF, err)
	}

	if flags.verbose {
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", output, len(pdf))
	} else {
		fmt.Println(output)
	}
	return nil
}

// launchStrategy builds the browser launch strategy from flags.
func launchStrategy(flags *cliFlags) web2pdf.LaunchStrategy {
	if flags.controlURL != "" {
		return web2pdf.RemoteLaunch{ControlURL: flags.controlURL}
	}
	return web2pdf.LocalLaunch{Bin: flags.browserBin, NoSandbox: flags.noSandbox}
}

// newLogger builds a stderr logger; quiet unless verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
