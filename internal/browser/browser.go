// Package browser wraps chromedp behind a small page-handle capability:
// open a page, wait for a selector, click, snapshot the DOM. Extraction
// strategies depend only on the Page interface, never on chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrSessionClosed is returned when a page is requested from a closed
// session.
var ErrSessionClosed = errors.New("browser session is closed")

// Page is a handle to one open browser tab.
type Page interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible node or
	// the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Click clicks the first node matching the selector.
	Click(ctx context.Context, selector string) error
	// Title returns the current document title.
	Title(ctx context.Context) (string, error)
	// HTML returns the serialized DOM of the current document.
	HTML(ctx context.Context) (string, error)
	// Text returns the rendered text of the first node matching the
	// selector.
	Text(ctx context.Context, selector string) (string, error)
	// Close releases the tab.
	Close()
}

// Config holds browser session settings.
type Config struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
}

// Session owns one browser process for the duration of a crawl run.
// Pages are opened as tabs within it so a long URL list doesn't
// accumulate browser processes.
type Session struct {
	cfg        Config
	browserCtx context.Context
	cancels    []context.CancelFunc
	closed     bool
}

// NewSession launches a browser with sandbox-disabling flags suitable
// for containerized execution and automation-control hiding to reduce
// bot blocking.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Session{
		cfg:        cfg,
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{browserCancel, allocCancel},
	}, nil
}

// NewPage opens a new tab in the session.
func (s *Session) NewPage() (Page, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	return &chromedpPage{
		ctx:        tabCtx,
		cancel:     tabCancel,
		navTimeout: s.cfg.NavigationTimeout,
	}, nil
}

// Close shuts the browser down. Open pages become unusable.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
}

// chromedpPage implements Page over a chromedp tab context.
type chromedpPage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := p.withTimeout(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("selector %q not visible: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Click(ctx context.Context, selector string) error {
	runCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Title(ctx context.Context) (string, error) {
	runCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	var title string
	if err := chromedp.Run(runCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to snapshot document: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) Text(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(runCtx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read text of %q: %w", selector, err)
	}
	return text, nil
}

func (p *chromedpPage) Close() {
	p.cancel()
}

// withTimeout merges the caller's context with the page's tab context
// and applies a timeout. The tab context carries the chromedp target;
// cancellation from either side aborts the operation.
func (p *chromedpPage) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		stop := context.AfterFunc(ctx, cancel)
		return runCtx, func() {
			stop()
			cancel()
		}
	}
	return runCtx, func() {}
}
