package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fingerprint"
)

// captureTimeout bounds reading the DOM after a navigation finished.
const captureTimeout = 10 * time.Second

// readyExpression is true once the new document has been parsed.
const readyExpression = `location.href !== "about:blank" && document.readyState !== "loading"`

// BrowserSession is a headless Chrome instance shared by every fetch of one
// crawl. Each navigation runs in a fresh tab so state from a failed attempt
// never leaks into the next one.
type BrowserSession struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	headers network.Headers
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// BrowserOption configures a BrowserSession.
type BrowserOption func(*browserConfig)

type browserConfig struct {
	headless  bool
	noSandbox bool
	execPath  string
	userAgent string
	headers   map[string]string
	logger    *slog.Logger
}

// WithHeadless toggles headless mode. Default true.
func WithHeadless(headless bool) BrowserOption {
	return func(c *browserConfig) {
		c.headless = headless
	}
}

// WithNoSandbox disables the Chrome sandbox, needed in most containers.
// Default true.
func WithNoSandbox(noSandbox bool) BrowserOption {
	return func(c *browserConfig) {
		c.noSandbox = noSandbox
	}
}

// WithExecPath sets the Chrome binary. Empty means autodetect.
func WithExecPath(path string) BrowserOption {
	return func(c *browserConfig) {
		c.execPath = path
	}
}

// WithBrowserUserAgent overrides the browser user agent.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(c *browserConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBrowserHeaders adds headers sent with every navigation.
func WithBrowserHeaders(headers map[string]string) BrowserOption {
	return func(c *browserConfig) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(c *browserConfig) {
		c.logger = logger
	}
}

// NewBrowserSession launches Chrome. The browser lives until Close is
// called or ctx is cancelled.
func NewBrowserSession(ctx context.Context, opts ...BrowserOption) (*BrowserSession, error) {
	cfg := &browserConfig{
		headless:  true,
		noSandbox: true,
		userAgent: fingerprint.UserAgent,
		headers:   fingerprint.NavigationHeaders(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.headless),
		chromedp.Flag("no-sandbox", cfg.noSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", fingerprint.Locale),
		chromedp.UserAgent(cfg.userAgent),
		chromedp.WindowSize(fingerprint.ViewportWidth, fingerprint.ViewportHeight),
	)
	if cfg.execPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(cfg.execPath))
	}

	headers := make(network.Headers, len(cfg.headers))
	for k, v := range cfg.headers {
		headers[k] = v
	}

	s := &BrowserSession{
		headers: headers,
		logger:  cfg.logger,
	}
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)

	// The first Run starts the browser process.
	if err := chromedp.Run(s.browserCtx); err != nil {
		s.browserCancel()
		s.allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserStart, err)
	}

	s.logger.Debug("browser started", "headless", cfg.headless)
	return s, nil
}

// Navigate loads req.URL in a new tab.
func (s *BrowserSession) Navigate(ctx context.Context, req Request) (*Snapshot, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	doc := newDocumentWatcher()
	chromedp.ListenTarget(tabCtx, doc.handle)

	if err := chromedp.Run(tabCtx, s.prepareTab()); err != nil {
		return nil, fmt.Errorf("%w: prepare tab: %v", ErrNavigation, err)
	}

	if err := s.load(tabCtx, req, doc); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNavigation, req.Strategy, req.URL, err)
	}

	snap, err := s.capture(tabCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: capture %s: %v", ErrNavigation, req.URL, err)
	}
	snap.Status = doc.status()
	return snap, nil
}

// load runs the navigation under req.Timeout using req.Strategy.
func (s *BrowserSession) load(tabCtx context.Context, req Request, doc *documentWatcher) error {
	navCtx, cancel := context.WithTimeout(tabCtx, req.Timeout)
	defer cancel()

	if err := chromedp.Run(navCtx, startNavigation(req.URL)); err != nil {
		return err
	}
	if err := doc.wait(navCtx); err != nil {
		return err
	}

	switch req.Strategy {
	case WaitCommit:
		return SleepContext(tabCtx, req.Settle)
	default:
		return chromedp.Run(navCtx, waitForDOMReady())
	}
}

// capture reads the rendered document.
func (s *BrowserSession) capture(tabCtx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(tabCtx, captureTimeout)
	defer cancel()

	var html, text, location string
	err := chromedp.Run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return nil, err
	}
	return &Snapshot{HTML: html, Text: text, FinalURL: location}, nil
}

// prepareTab applies the browser fingerprint to a fresh tab.
func (s *BrowserSession) prepareTab() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}
		if err := network.SetExtraHTTPHeaders(s.headers).Do(ctx); err != nil {
			return err
		}
		if err := emulation.SetTimezoneOverride(fingerprint.Timezone).Do(ctx); err != nil {
			return err
		}
		if err := emulation.SetLocaleOverride().WithLocale(fingerprint.Locale).Do(ctx); err != nil {
			s.logger.Debug("locale override rejected", "error", err)
		}
		_, err := page.AddScriptToEvaluateOnNewDocument(fingerprint.StealthScript).Do(ctx)
		return err
	})
}

// Close shuts down the browser. It is safe to call more than once.
func (s *BrowserSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (s *BrowserSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// startNavigation issues Page.navigate, which returns once the request has
// been sent. Load failures surface through the documentWatcher.
func startNavigation(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), nil)
	})
}

// waitForDOMReady polls until the new document has been parsed.
func waitForDOMReady() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			var ready bool
			if err := chromedp.Evaluate(readyExpression, &ready).Do(ctx); err == nil && ready {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// documentWatcher records the first main-document response of a tab.
type documentWatcher struct {
	once     sync.Once
	done     chan struct{}
	mu       sync.Mutex
	code     int
	errorMsg string
}

func newDocumentWatcher() *documentWatcher {
	return &documentWatcher{done: make(chan struct{})}
}

// handle is a chromedp target listener. It must not block.
func (w *documentWatcher) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		w.once.Do(func() {
			w.mu.Lock()
			w.code = int(e.Response.Status)
			w.mu.Unlock()
			close(w.done)
		})
	case *network.EventLoadingFailed:
		if e.Type != network.ResourceTypeDocument {
			return
		}
		w.once.Do(func() {
			w.mu.Lock()
			w.errorMsg = e.ErrorText
			w.mu.Unlock()
			close(w.done)
		})
	}
}

// wait blocks until the document response arrived or failed.
func (w *documentWatcher) wait(ctx context.Context) error {
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errorMsg != "" {
		return errors.New(w.errorMsg)
	}
	return nil
}

func (w *documentWatcher) status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.code
}
