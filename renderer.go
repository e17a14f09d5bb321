package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Navigation retry policy: 3 total attempts with a fixed 1s pause between
// them. After the last failure the original cause is propagated inside
// ErrNavigation.
const (
	navigationAttempts = 3
	navigationBackoff  = time.Second
)

// PDF page dimensions in inches (A4 format, 10mm margins).
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.394
)

// pageSession is the slice of a browser page the renderer drives, abstracted
// so retry and cleanup logic is testable without a browser.
type pageSession interface {
	SetViewport(width, height int) error
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	PDF(ctx context.Context) ([]byte, error)
	Close() error
}

// pageOpener opens one single-use page session from the shared browser.
type pageOpener interface {
	OpenPage(ctx context.Context) (pageSession, error)
}

// Compile-time interface checks.
var (
	_ pageOpener  = rodPageOpener{}
	_ pageSession = (*rodPageSession)(nil)
)

// pageRenderer drives one page session through navigation-with-retry, the
// settle wait, and PDF serialization. It holds no browser state; the opener
// supplies sessions.
type pageRenderer struct {
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error // injectable for tests
}

func newPageRenderer(logger *slog.Logger) *pageRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &pageRenderer{logger: logger, sleep: sleepCtx}
}

// render produces PDF bytes for req using one single-use page from opener.
// The page is closed on every exit path; a close failure is logged and never
// masks the primary outcome. Either a complete PDF buffer or an error is
// returned, never partial output.
func (r *pageRenderer) render(ctx context.Context, opener pageOpener, req RenderRequest) ([]byte, error) {
	profile, err := req.Quality.Profile()
	if err != nil {
		return nil, err
	}

	page, err := opener.OpenPage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.logger.Warn("closing page", "url", req.URL, "error", cerr)
		}
	}()

	if err := page.SetViewport(profile.ViewportWidth, profile.ViewportHeight); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	if err := r.navigate(ctx, page, req.URL, profile.NavigationTimeout); err != nil {
		return nil, err
	}

	// Settle delay before snapshotting.
	if err := r.sleep(ctx, req.Quality.settleDelay()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}

	pdf, err := page.PDF(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// navigate retries failed navigations with a fixed backoff. The caller's own
// deadline cuts retries short; exhaustion wraps the last cause in
// ErrNavigation.
func (r *pageRenderer) navigate(ctx context.Context, page pageSession, url string, timeout time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= navigationAttempts; attempt++ {
		lastErr = page.Navigate(ctx, url, timeout)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrRenderTimeout, ctx.Err())
		}
		if attempt < navigationAttempts {
			r.logger.Debug("navigation failed, retrying",
				"url", url, "attempt", attempt, "error", lastErr)
			if err := r.sleep(ctx, navigationBackoff); err != nil {
				return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
			}
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrNavigation, url, navigationAttempts, lastErr)
}

// sleepCtx waits for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rodPageOpener opens pages from a shared rod browser handle.
type rodPageOpener struct {
	browser *rod.Browser
}

func (o rodPageOpener) OpenPage(ctx context.Context) (pageSession, error) {
	page, err := o.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return &rodPageSession{page: page}, nil
}

// rodPageSession implements pageSession on a real browser page.
type rodPageSession struct {
	page *rod.Page
}

func (s *rodPageSession) SetViewport(width, height int) error {
	return s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// Navigate loads url and waits for the DOM-ready signal (not full network
// idle, to bound latency) within timeout.
func (s *rodPageSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := s.page.Context(navCtx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()
	// WaitNavigation returns silently on context expiry; surface it.
	return navCtx.Err()
}

// PDF emits an A4 snapshot with backgrounds, 10mm margins, no header/footer
// chrome, honoring the page's own CSS page size where specified.
func (s *rodPageSession) PDF(ctx context.Context) ([]byte, error) {
	reader, err := s.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(marginInches),
		MarginBottom:      floatPtr(marginInches),
		MarginLeft:        floatPtr(marginInches),
		MarginRight:       floatPtr(marginInches),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

func (s *rodPageSession) Close() error {
	return s.page.Close()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
