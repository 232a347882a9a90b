package scraper_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/normalize"
	"github.com/jonesrussell/promocrawl/internal/scraper"
	"github.com/jonesrussell/promocrawl/internal/scraper/strategy"
)

// fakeSession hands out fakePages. Navigation fails for URLs containing
// the failSubstring, simulating one bank site being down.
type fakeSession struct {
	failSubstring string
	started       chan struct{}
	release       chan struct{}
	closed        bool
}

func (s *fakeSession) NewPage() (browser.Page, error) {
	return &fakePage{session: s}, nil
}

func (s *fakeSession) Close() { s.closed = true }

type fakePage struct {
	session *fakeSession
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if p.session.started != nil {
		close(p.session.started)
		p.session.started = nil
		<-p.session.release
	}
	if p.session.failSubstring != "" && strings.Contains(url, p.session.failSubstring) {
		return errors.New("net::ERR_CONNECTION_REFUSED")
	}
	return nil
}

func (p *fakePage) WaitVisible(context.Context, string, time.Duration) error { return nil }
func (p *fakePage) Click(context.Context, string) error                      { return nil }
func (p *fakePage) Title(context.Context) (string, error)                    { return "Promos", nil }
func (p *fakePage) HTML(context.Context) (string, error) {
	return "<html><body></body></html>", nil
}
func (p *fakePage) Text(context.Context, string) (string, error) { return "contenido", nil }
func (p *fakePage) Close()                                       {}

// memStore is an in-memory normalize.Store.
type memStore struct {
	rows map[string]domain.Promotion
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]domain.Promotion)} }

func (s *memStore) ExistsByBankTitle(_ context.Context, bank, title string) (bool, error) {
	_, ok := s.rows[bank+"\x00"+title]
	return ok, nil
}

func (s *memStore) Insert(_ context.Context, p *domain.Promotion) error {
	s.rows[p.Key()] = *p
	return nil
}

func (s *memStore) DeleteAll(context.Context) error {
	s.rows = make(map[string]domain.Promotion)
	return nil
}

func newTestScraper(urls []string, session *fakeSession) *scraper.Scraper {
	sc := scraper.New(
		logger.NewNoop(),
		config.ScraperConfig{URLs: urls},
		strategy.NewRegistry(logger.NewNoop()),
		func(context.Context, browser.Config) (scraper.Session, error) {
			return session, nil
		},
	)
	sc.HumanDelay = func(context.Context) {}
	return sc
}

func TestRunProducesOneResultPerURL(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://promos-uno.example.com",
		"https://promos-dos.example.com",
		"https://promos-tres.example.com",
	}
	session := &fakeSession{failSubstring: "promos-dos"}

	results, err := newTestScraper(urls, session).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3, "a failing site must not abort the run")

	assert.NotNil(t, results[0].Fallback)
	assert.NotNil(t, results[2].Fallback)

	assert.True(t, results[1].Failed())
	assert.Equal(t, urls[1], results[1].URL)
	assert.Nil(t, results[1].Fallback)

	assert.True(t, session.closed, "session must be closed after the run")
}

func TestRunFailsWhenBrowserCannotLaunch(t *testing.T) {
	t.Parallel()

	sc := scraper.New(
		logger.NewNoop(),
		config.ScraperConfig{URLs: []string{"https://example.com"}},
		strategy.NewRegistry(logger.NewNoop()),
		func(context.Context, browser.Config) (scraper.Session, error) {
			return nil, errors.New("chrome not found")
		},
	)

	_, err := sc.Run(context.Background())
	require.Error(t, err)
}

func TestServiceRejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := scraper.NewService(
		logger.NewNoop(),
		scraper.NewRunState(),
		newTestScraper([]string{"https://example.com"}, session),
		normalize.NewSync(logger.NewNoop(), newMemStore(), ""),
	)

	done := make(chan error, 1)
	started := session.started
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, scraper.ErrCrawlInProgress)
	assert.Equal(t, scraper.StateInProgress, svc.Status().Status)

	close(session.release)
	require.NoError(t, <-done)

	status := svc.Status()
	assert.Equal(t, scraper.StateReady, status.Status)
	assert.False(t, status.InProgress())
	assert.True(t, status.DataAvailable)
	assert.NotNil(t, status.LastUpdated)
}

func TestRunAsyncAdmitsBeforeReturning(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := scraper.NewService(
		logger.NewNoop(),
		scraper.NewRunState(),
		newTestScraper([]string{"https://example.com"}, session),
		normalize.NewSync(logger.NewNoop(), newMemStore(), ""),
	)

	started := session.started
	require.NoError(t, svc.RunAsync(context.Background()))

	// The run was admitted synchronously, so a second trigger must lose
	// even before the first navigation happens.
	assert.ErrorIs(t, svc.RunAsync(context.Background()), scraper.ErrCrawlInProgress)
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, scraper.ErrCrawlInProgress)

	<-started
	close(session.release)

	require.Eventually(t, func() bool {
		return !svc.Status().InProgress()
	}, time.Second, 10*time.Millisecond)
	assert.True(t, svc.Status().DataAvailable)
}

func TestRunStateTransitions(t *testing.T) {
	t.Parallel()

	state := scraper.NewRunState()

	require.True(t, state.TryStart())
	assert.False(t, state.TryStart(), "second start must be rejected")

	state.Finish(false)
	assert.False(t, state.Running())
	assert.False(t, state.Snapshot().DataAvailable)

	require.True(t, state.TryStart())
	state.Finish(true)
	assert.True(t, state.Snapshot().DataAvailable)
}
