package scraper

import (
	"context"
	"errors"

	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/normalize"
)

// ErrCrawlInProgress is returned when a crawl is requested while one is
// already in flight. Duplicate triggers are rejected, never queued.
var ErrCrawlInProgress = errors.New("a scraping run is already in progress")

// Service runs complete crawl passes (scrape all banks, normalize,
// persist) guarded by the single-flight run state.
type Service struct {
	log     logger.Interface
	state   *RunState
	scraper *Scraper
	sync    *normalize.Sync
}

// NewService creates the crawl service.
func NewService(log logger.Interface, state *RunState, sc *Scraper, sync *normalize.Sync) *Service {
	return &Service{
		log:     log,
		state:   state,
		scraper: sc,
		sync:    sync,
	}
}

// Run executes one crawl pass end to end. It returns ErrCrawlInProgress
// without starting a browser when a run is already active.
func (s *Service) Run(ctx context.Context) ([]domain.Promotion, error) {
	if !s.state.TryStart() {
		return nil, ErrCrawlInProgress
	}
	return s.run(ctx)
}

// RunAsync admits a run synchronously and executes it in the
// background. A nil return means the run was admitted and has started;
// ErrCrawlInProgress means nothing was started.
func (s *Service) RunAsync(ctx context.Context) error {
	if !s.state.TryStart() {
		return ErrCrawlInProgress
	}

	go func() {
		if _, err := s.run(ctx); err != nil {
			s.log.Error("Background scraping run failed", "error", err)
		}
	}()

	return nil
}

// run executes an already-admitted crawl pass and releases the run
// state when done.
func (s *Service) run(ctx context.Context) ([]domain.Promotion, error) {
	produced := false
	defer func() { s.state.Finish(produced) }()

	s.log.Info("Starting scraping run")
	results, err := s.scraper.Run(ctx)
	if err != nil {
		s.log.Error("Scraping run failed", "error", err)
		return nil, err
	}

	promos, err := s.sync.Persist(ctx, results)
	if err != nil {
		return nil, err
	}

	produced = len(results) > 0
	s.log.Info("Scraping run completed", "sites", len(results), "new_offers", len(promos))
	return promos, nil
}

// Status returns the current run-state snapshot.
func (s *Service) Status() Status {
	return s.state.Snapshot()
}
