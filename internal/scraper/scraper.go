// Package scraper implements the crawl orchestrator: one browser
// session per run, sequential URL processing, per-bank strategy
// dispatch, and single-flight run-state tracking.
package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/scraper/strategy"
)

// Human-mimicking delay bounds between navigation and extraction.
const (
	minHumanDelay    = 2 * time.Second
	humanDelaySpread = 5 * time.Second
)

// Session is the subset of a browser session the scraper needs. It is
// satisfied by *browser.Session and by test fakes.
type Session interface {
	NewPage() (browser.Page, error)
	Close()
}

// SessionFactory launches a browser session for one crawl run.
type SessionFactory func(ctx context.Context, cfg browser.Config) (Session, error)

// ChromeSessionFactory launches a real chromedp-backed session.
func ChromeSessionFactory(ctx context.Context, cfg browser.Config) (Session, error) {
	return browser.NewSession(ctx, cfg)
}

// Scraper crawls all configured bank pages within one browser session.
type Scraper struct {
	log        logger.Interface
	cfg        config.ScraperConfig
	registry   *strategy.Registry
	newSession SessionFactory

	// HumanDelay overrides the randomized inter-page delay when set to
	// a non-nil function. Tests use a no-op.
	HumanDelay func(ctx context.Context)
}

// New creates a scraper.
func New(
	log logger.Interface,
	cfg config.ScraperConfig,
	registry *strategy.Registry,
	newSession SessionFactory,
) *Scraper {
	return &Scraper{
		log:        log,
		cfg:        cfg,
		registry:   registry,
		newSession: newSession,
	}
}

// Run scrapes every configured URL in order and returns one raw result
// per URL. A single bank's failure never aborts the run: the failing
// URL is recorded as an error placeholder and crawling continues.
// Only a browser launch failure fails the whole run.
func (s *Scraper) Run(ctx context.Context) ([]domain.RawResult, error) {
	session, err := s.newSession(ctx, browser.Config{
		Headless:          s.cfg.Headless,
		UserAgent:         s.cfg.UserAgent,
		NavigationTimeout: s.cfg.NavigationTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	results := make([]domain.RawResult, 0, len(s.cfg.URLs))
	for _, url := range s.cfg.URLs {
		results = append(results, s.scrapeURL(ctx, session, url))
	}

	return results, nil
}

// scrapeURL processes one URL: open a tab, navigate, pause like a
// human, dispatch to the bank's strategy, close the tab. Pages are
// closed per URL to bound memory growth across a long list.
func (s *Scraper) scrapeURL(ctx context.Context, session Session, url string) domain.RawResult {
	s.log.Info("Scraping", "url", url)

	bank := domain.BankFromURL(url)

	page, err := session.NewPage()
	if err != nil {
		return domain.RawResult{Bank: bank.DisplayName, URL: url, Err: err.Error()}
	}
	defer page.Close()

	if err := page.Navigate(ctx, url); err != nil {
		s.log.Error("Navigation failed", "url", url, "error", err)
		return domain.RawResult{Bank: bank.DisplayName, URL: url, Err: err.Error()}
	}

	s.pause(ctx)

	result := s.registry.For(bank.ID).Extract(ctx, page)
	result.Bank = bank.DisplayName
	result.URL = url

	if result.Err != "" {
		s.log.Warn("Extraction degraded", "url", url, "error", result.Err)
	}
	s.log.Info("Finished scraping", "url", url, "bank", bank.DisplayName)
	return result
}

// pause sleeps a randomized 2-7s to mimic human browsing cadence.
func (s *Scraper) pause(ctx context.Context) {
	if s.HumanDelay != nil {
		s.HumanDelay(ctx)
		return
	}

	delay := minHumanDelay + time.Duration(rand.Int63n(int64(humanDelaySpread)))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
