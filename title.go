package web2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Title extraction bounds: a 15s navigation budget under a 20s overall page
// ceiling, single attempt.
const (
	titleNavigationTimeout = 15 * time.Second
	titlePageTimeout       = 20 * time.Second
)

// fallbackTitle is returned whenever extraction fails for any reason.
const fallbackTitle = "Untitled"

// TitleExtractor fetches a page's <title> to build a human filename. It
// launches and tears down its own short-lived browser per call: title
// extraction is infrequent, and the isolation keeps it from contending with
// the render queue for the shared process.
type TitleExtractor struct {
	strategy LaunchStrategy
	logger   *slog.Logger
}

// NewTitleExtractor creates an extractor using the given launch strategy.
// A nil strategy defaults to LocalLaunch; a nil logger uses slog.Default.
func NewTitleExtractor(strategy LaunchStrategy, logger *slog.Logger) *TitleExtractor {
	if strategy == nil {
		strategy = LocalLaunch{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TitleExtractor{strategy: strategy, logger: logger}
}

// ExtractTitle returns the document title of url, or "Untitled" on any
// failure (launch error, navigation error, timeout). It never returns an
// error: title extraction is best-effort and must not block PDF delivery.
// Cleanup failures are logged and swallowed.
func (t *TitleExtractor) ExtractTitle(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, titlePageTimeout)
	defer cancel()

	browser, err := t.strategy.Launch(ctx)
	if err != nil {
		t.logger.Warn("title extraction launch failed", "url", url, "error", err)
		return fallbackTitle
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			t.logger.Warn("closing title browser", "error", cerr)
		}
	}()

	title, err := t.fetchTitle(ctx, browser, url)
	if err != nil {
		t.logger.Warn("title extraction failed", "url", url, "error", err)
		return fallbackTitle
	}
	if title == "" {
		return fallbackTitle
	}
	return title
}

// fetchTitle navigates a fresh page and reads its title.
func (t *TitleExtractor) fetchTitle(ctx context.Context, browser *rod.Browser, url string) (string, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			t.logger.Warn("closing title page", "error", cerr)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, titleNavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return "", err
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return "", err
	}

	info, err := page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}
