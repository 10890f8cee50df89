package livesearch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/swipebox/internal/domain/track"
)

type fakeSearcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSearcher) Search(ctx context.Context, term string, limit int) ([]track.Track, error) {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return []track.Track{{TrackID: 1, TrackName: term}}, nil
}

func (f *fakeSearcher) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeHistory struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeHistory) RecordSearch(ctx context.Context, q string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return nil
}

func (f *fakeHistory) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func waitResult(t *testing.T, s *Service) Result {
	t.Helper()
	select {
	case r := <-s.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search result")
		return Result{}
	}
}

func TestService_DeliversAfterDebounce(t *testing.T) {
	searcher := &fakeSearcher{}
	history := &fakeHistory{}
	s := New(searcher, history, 10*time.Millisecond, 50)
	defer s.Close()

	s.Query("daft punk")

	r := waitResult(t, s)
	require.NoError(t, r.Err)
	assert.Equal(t, "daft punk", r.Query)
	assert.Len(t, r.Tracks, 1)
	assert.Equal(t, []string{"daft+punk"}, searcher.callLog(), "term must be sanitized")
	assert.Equal(t, []string{"daft punk"}, history.recorded())
}

func TestService_RapidKeystrokesCollapse(t *testing.T) {
	searcher := &fakeSearcher{}
	s := New(searcher, &fakeHistory{}, 50*time.Millisecond, 50)
	defer s.Close()

	s.Query("d")
	s.Query("da")
	s.Query("daft")

	r := waitResult(t, s)
	assert.Equal(t, "daft", r.Query)
	assert.Equal(t, []string{"daft"}, searcher.callLog(), "superseded keystrokes must not search")

	select {
	case extra := <-s.Results():
		t.Fatalf("unexpected extra result for %q", extra.Query)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestService_BlankInputCancelsPending(t *testing.T) {
	searcher := &fakeSearcher{}
	s := New(searcher, &fakeHistory{}, 20*time.Millisecond, 50)
	defer s.Close()

	s.Query("daft")
	s.Query("   ")

	select {
	case r := <-s.Results():
		t.Fatalf("unexpected result for %q", r.Query)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, searcher.callLog())
}

func TestService_SearchErrorSurfaces(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("service unavailable")}
	s := New(searcher, &fakeHistory{}, 10*time.Millisecond, 50)
	defer s.Close()

	s.Query("daft")

	r := waitResult(t, s)
	require.Error(t, r.Err)
	assert.Empty(t, r.Tracks)
}
