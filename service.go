package web2pdf

import (
	"context"
	"log/slog"
	"sync"
)

// serviceConfig holds construction-time settings.
type serviceConfig struct {
	logger        *slog.Logger
	strategy      LaunchStrategy
	store         UsageStore
	queueCapacity int
}

// Option configures a Service.
type Option func(*serviceConfig)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithLaunchStrategy selects how browser processes are obtained (local
// binary vs remote endpoint). Default: LocalLaunch.
func WithLaunchStrategy(strategy LaunchStrategy) Option {
	return func(c *serviceConfig) {
		c.strategy = strategy
	}
}

// WithUsageStore sets the usage accounting backend. Default: MemoryStore.
func WithUsageStore(store UsageStore) Option {
	return func(c *serviceConfig) {
		c.store = store
	}
}

// WithQueueCapacity bounds the pending-render backlog.
// Default: DefaultQueueCapacity.
func WithQueueCapacity(n int) Option {
	return func(c *serviceConfig) {
		c.queueCapacity = n
	}
}

// Service is the facade the request-handling layer talks to: submit a URL
// and quality, get back PDF bytes and a title, and check/increment the
// per-user monthly counter. Construct with NewService and inject it into
// whatever owns the request lifecycle; Close releases the browser.
type Service struct {
	cfg        serviceConfig
	manager    *BrowserManager
	queue      *RenderQueue
	renderer   *pageRenderer
	titles     *TitleExtractor
	accountant *Accountant

	// renderWith performs one queued render; tests replace it to exercise
	// the facade without a browser.
	renderWith func(ctx context.Context, req RenderRequest) ([]byte, error)

	mu     sync.Mutex
	closed bool
}

// NewService creates a fully wired Service. Use options to customize
// behavior (e.g. WithLaunchStrategy, WithUsageStore).
func NewService(opts ...Option) *Service {
	cfg := serviceConfig{
		logger:   slog.Default(),
		strategy: LocalLaunch{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore()
	}

	s := &Service{
		cfg:        cfg,
		manager:    NewBrowserManager(cfg.strategy, cfg.logger),
		queue:      NewRenderQueue(cfg.queueCapacity, cfg.logger),
		renderer:   newPageRenderer(cfg.logger),
		titles:     NewTitleExtractor(cfg.strategy, cfg.logger),
		accountant: NewAccountant(cfg.store, cfg.logger),
	}
	s.renderWith = s.renderLive
	return s
}

// GeneratePDF validates the input, waits its turn in the render queue, and
// returns the rendered PDF bytes. Validation failures never touch the
// browser. There is no overall deadline composing the stages; callers apply
// their own end-to-end timeout through ctx.
func (s *Service) GeneratePDF(ctx context.Context, in Input) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	req, err := NewRenderRequest(in.URL, in.Quality)
	if err != nil {
		return nil, err
	}
	return s.queue.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return s.renderWith(ctx, req)
	})
}

// renderLive acquires the shared browser and renders one page.
func (s *Service) renderLive(ctx context.Context, req RenderRequest) ([]byte, error) {
	browser, err := s.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return s.renderer.render(ctx, rodPageOpener{browser: browser}, req)
}

// ExtractPageTitle returns the page title for url, or "Untitled" on any
// failure. Never returns an error.
func (s *Service) ExtractPageTitle(ctx context.Context, url string) string {
	return s.titles.ExtractTitle(ctx, url)
}

// CheckUsageLimit reports whether userID may run another conversion this
// month, creating the usage record on first contact.
func (s *Service) CheckUsageLimit(ctx context.Context, userID string) (UsageStatus, error) {
	return s.accountant.CheckLimit(ctx, userID)
}

// IncrementUsage atomically records one completed conversion for userID.
func (s *Service) IncrementUsage(ctx context.Context, userID string) (UsageRecord, error) {
	return s.accountant.Increment(ctx, userID)
}

// UpgradePlan switches userID to plan without resetting the counter.
func (s *Service) UpgradePlan(ctx context.Context, userID string, plan Plan) (UsageRecord, error) {
	return s.accountant.UpgradePlan(ctx, userID, plan)
}

// Close drains the render queue and shuts the browser down.
// Safe to call more than once.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.queue.Close()
	return s.manager.Shutdown()
}

// check rejects calls after Close.
func (s *Service) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	return nil
}
