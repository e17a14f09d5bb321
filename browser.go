package web2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/singleflight"
)

// LaunchStrategy abstracts how a browser process is obtained, so the same
// manager serves a local binary and a remote/packaged runtime. Selected by
// configuration at startup.
type LaunchStrategy interface {
	// Launch starts or connects to a browser and returns a connected client.
	Launch(ctx context.Context) (*rod.Browser, error)
}

// Compile-time interface checks.
var (
	_ LaunchStrategy = LocalLaunch{}
	_ LaunchStrategy = RemoteLaunch{}
)

// LocalLaunch spawns a headless Chrome/Chromium on this machine.
// Rod downloads a managed Chromium on first use when Bin is empty.
type LocalLaunch struct {
	Bin       string // optional path to a pre-installed browser (Docker/containers)
	NoSandbox bool   // required in most containers and CI
}

// Launch spawns the browser subprocess and connects over DevTools.
func (l LocalLaunch) Launch(ctx context.Context) (*rod.Browser, error) {
	ln := launcher.New().
		Headless(true).
		Set("disable-dev-shm-usage")

	if l.Bin != "" {
		ln = ln.Bin(l.Bin)
	}
	if l.NoSandbox {
		ln = ln.NoSandbox(true)
	}

	u, err := ln.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	return browser, nil
}

// RemoteLaunch connects to an already-running browser over the DevTools
// protocol, for constrained runtimes that cannot spawn subprocesses.
type RemoteLaunch struct {
	ControlURL string // DevTools websocket URL, e.g. ws://chrome:9222
}

// Launch connects to the remote browser endpoint.
func (r RemoteLaunch) Launch(ctx context.Context) (*rod.Browser, error) {
	if r.ControlURL == "" {
		return nil, fmt.Errorf("%w: remote control URL is empty", ErrBrowserLaunch)
	}
	browser := rod.New().ControlURL(r.ControlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}
	return browser, nil
}

// BrowserManager owns the lifecycle of the shared headless-browser process.
// It launches lazily on first demand, reuses the handle across renders, and
// relaunches after a detected disconnect. Construct one per host process and
// inject it; lifecycle is explicit (Shutdown), never implicit.
type BrowserManager struct {
	strategy LaunchStrategy
	logger   *slog.Logger
	health   func(*rod.Browser) bool  // liveness probe, injectable for tests
	close    func(*rod.Browser) error // handle teardown, injectable for tests

	group singleflight.Group

	mu      sync.Mutex
	browser *rod.Browser
	closed  bool
}

// NewBrowserManager creates a manager using the given launch strategy.
// A nil strategy defaults to LocalLaunch; a nil logger uses slog.Default.
func NewBrowserManager(strategy LaunchStrategy, logger *slog.Logger) *BrowserManager {
	if strategy == nil {
		strategy = LocalLaunch{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserManager{
		strategy: strategy,
		logger:   logger,
		health:   pingBrowser,
		close:    (*rod.Browser).Close,
	}
}

// Acquire returns the live shared browser, launching it on first demand.
// Concurrent callers during an in-flight launch wait on that same launch and
// receive the same handle; exactly one process is spawned. A failed launch
// is delivered to every waiter, after which the next Acquire retries from
// scratch. Before returning a cached handle the manager probes liveness and
// relaunches if the process has gone away.
func (m *BrowserManager) Acquire(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrServiceClosed
	}
	if b := m.browser; b != nil && m.health(b) {
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do("launch", func() (any, error) {
		return m.launch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rod.Browser), nil
}

// launch replaces a dead handle with a fresh one. Runs under singleflight,
// so at most one launch is in flight at any instant.
func (m *BrowserManager) launch(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrServiceClosed
	}
	// Another waiter may have finished the launch just before us.
	if b := m.browser; b != nil && m.health(b) {
		m.mu.Unlock()
		return b, nil
	}
	stale := m.browser
	m.browser = nil
	m.mu.Unlock()

	if stale != nil {
		m.logger.Warn("browser disconnected, relaunching")
		if err := m.close(stale); err != nil {
			m.logger.Warn("closing stale browser", "error", err)
		}
	}

	b, err := m.strategy.Launch(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if cerr := m.close(b); cerr != nil {
			m.logger.Warn("closing browser launched during shutdown", "error", cerr)
		}
		return nil, ErrServiceClosed
	}
	m.browser = b
	m.mu.Unlock()

	m.logger.Debug("browser launched")
	return b, nil
}

// Shutdown closes the browser process. Best-effort: if the host is killed
// abruptly, process supervision must clean up. Safe to call more than once.
func (m *BrowserManager) Shutdown() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	b := m.browser
	m.browser = nil
	m.mu.Unlock()

	if b == nil {
		return nil
	}
	if err := m.close(b); err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}

// pingBrowser verifies the handle still responds over DevTools.
func pingBrowser(b *rod.Browser) bool {
	_, err := b.Version()
	return err == nil
}
