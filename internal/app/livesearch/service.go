package livesearch

import (
	"context"
	"strings"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/app/query"
	"github.com/osa030/swipebox/internal/domain/track"
)

// DefaultDebounce is how long the service waits after a keystroke before
// issuing the search.
const DefaultDebounce = 100 * time.Millisecond

// Searcher is the keyword search backend.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]track.Track, error)
}

// HistoryRecorder persists executed query strings.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, q string) error
}

// Result is one delivered search outcome. Only the latest query's result is
// ever delivered; superseded queries are cancelled silently.
type Result struct {
	Query  string
	Tracks []track.Track
	Err    error
}

// Service debounces free-text input and runs at most one search at a time.
type Service struct {
	mu sync.Mutex

	searcher Searcher
	history  HistoryRecorder
	debounce time.Duration
	limit    int

	generation int
	cancel     context.CancelFunc

	resultCh chan Result

	ctx       context.Context
	cancelAll context.CancelFunc
}

// New creates a live search service. A debounce <= 0 selects the default.
func New(searcher Searcher, history HistoryRecorder, debounce time.Duration, limit int) *Service {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		searcher:  searcher,
		history:   history,
		debounce:  debounce,
		limit:     limit,
		resultCh:  make(chan Result, 8),
		ctx:       ctx,
		cancelAll: cancel,
	}
}

// Results returns the delivery channel.
func (s *Service) Results() <-chan Result {
	return s.resultCh
}

// Query registers a keystroke. The search fires after the debounce window
// unless a newer keystroke supersedes it first; an in-flight search for an
// older keystroke is cancelled. Blank input only cancels pending work.
func (s *Service) Query(text string) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	if text == "" {
		s.cancel = nil
		s.mu.Unlock()
		return
	}
	qctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(qctx, gen, text)
}

func (s *Service) run(ctx context.Context, gen int, text string) {
	timer := time.NewTimer(s.debounce)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := s.history.RecordSearch(ctx, text); err != nil {
		zlog.Warn().Err(err).Str("query", text).Msg("livesearch: record search failed")
	}

	tracks, err := s.searcher.Search(ctx, query.Sanitize(text), s.limit)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	latest := gen == s.generation
	s.mu.Unlock()
	if !latest {
		return
	}

	select {
	case s.resultCh <- Result{Query: text, Tracks: tracks, Err: err}:
	case <-ctx.Done():
	}
}

// Close cancels pending work and releases the service.
func (s *Service) Close() {
	s.cancelAll()
}
