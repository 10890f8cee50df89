package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/swipebox/internal/app/planner"
	"github.com/osa030/swipebox/internal/domain/track"
)

type fakeSearcher struct {
	results map[string][]track.Track
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(ctx context.Context, term string, limit int) ([]track.Track, error) {
	f.calls = append(f.calls, term)
	if err, ok := f.errs[term]; ok {
		return nil, err
	}
	return f.results[term], nil
}

type fakeHistory struct {
	listened map[int64]bool
}

func (f *fakeHistory) AlreadyListened(ctx context.Context, trackID int64) bool {
	return f.listened[trackID]
}

func validTrack(id int64, year int) track.Track {
	return track.Track{
		TrackID:           id,
		ArtistName:        fmt.Sprintf("artist-%d", id),
		CollectionName:    "album",
		TrackName:         fmt.Sprintf("track-%d", id),
		ArtistViewURL:     "https://example.com/a",
		CollectionViewURL: "https://example.com/c",
		TrackViewURL:      "https://example.com/t",
		PreviewURL:        "https://example.com/p.m4a",
		ArtworkURL60:      "https://example.com/60.jpg",
		ArtworkURL100:     "https://example.com/100.jpg",
		ReleaseDate:       fmt.Sprintf("%d-01-01T00:00:00Z", year),
		Country:           "USA",
		PrimaryGenreName:  "Rock",
	}
}

func newTestEngine(s Searcher, h History) *Engine {
	return New(s, h, 0, 0, rand.New(rand.NewSource(7)))
}

func notInBuffer(int64) bool { return false }

func TestRefill_QuotaPerTerm(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]track.Track{
		"rock": {validTrack(1, 1990), validTrack(2, 1991), validTrack(3, 1992)},
		"jazz": {validTrack(4, 1960), validTrack(5, 1961), validTrack(6, 1962)},
	}}
	engine := newTestEngine(searcher, &fakeHistory{})

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock", "jazz"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.NoError(t, err)
	assert.Len(t, batch, 4) // two per term

	ids := make(map[int64]int)
	for _, trk := range batch {
		ids[trk.TrackID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "track %d appeared %d times", id, n)
	}
}

func TestRefill_SkipsInvalidAndListened(t *testing.T) {
	invalid := validTrack(10, 1990)
	invalid.PreviewURL = ""

	searcher := &fakeSearcher{results: map[string][]track.Track{
		"rock": {invalid, validTrack(11, 1990), validTrack(12, 1991), validTrack(13, 1992)},
	}}
	history := &fakeHistory{listened: map[int64]bool{11: true}}
	engine := newTestEngine(searcher, history)

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.NoError(t, err)
	require.Len(t, batch, 2)
	for _, trk := range batch {
		assert.NotEqual(t, int64(10), trk.TrackID, "invalid track accepted")
		assert.NotEqual(t, int64(11), trk.TrackID, "already listened track accepted")
	}
}

func TestRefill_SkipsBufferMembers(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]track.Track{
		"rock": {validTrack(20, 1990), validTrack(21, 1991), validTrack(22, 1992)},
	}}
	engine := newTestEngine(searcher, &fakeHistory{})

	inBuffer := func(id int64) bool { return id == 20 }
	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock"}}
	batch, err := engine.Refill(context.Background(), plan, inBuffer)

	require.NoError(t, err)
	require.Len(t, batch, 2)
	for _, trk := range batch {
		assert.NotEqual(t, int64(20), trk.TrackID)
	}
}

func TestRefill_YearBucketOnFinalTerm(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]track.Track{
		"soul":  {validTrack(30, 2020), validTrack(31, 1994)},
		"disco": {validTrack(32, 2020), validTrack(33, 1994), validTrack(34, 1991), validTrack(35, 1990)},
	}}
	engine := newTestEngine(searcher, &fakeHistory{})

	// Bucket 1995 covers (1990, 1995].
	plan := planner.Plan{
		Phase:      planner.PhasePersonalized,
		Terms:      []string{"soul", "disco"},
		YearBucket: 1995,
	}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)
	require.NoError(t, err)

	byID := make(map[int64]track.Track)
	for _, trk := range batch {
		byID[trk.TrackID] = trk
	}

	// "soul" is not the final term: both of its tracks pass regardless of year.
	assert.Contains(t, byID, int64(30))
	assert.Contains(t, byID, int64(31))

	// "disco" is the final term: 2020 is outside and 1990 is on the excluded
	// lower bound, so 1994 and 1991 are the two accepted tracks.
	assert.Contains(t, byID, int64(33))
	assert.Contains(t, byID, int64(34))
	assert.NotContains(t, byID, int64(32))
	assert.NotContains(t, byID, int64(35))
}

func TestRefill_BackfillOnShortfall(t *testing.T) {
	// Every result is already listened; the quota is filled from the raw
	// result set anyway so the feed keeps moving.
	searcher := &fakeSearcher{results: map[string][]track.Track{
		"rock": {validTrack(40, 1990), validTrack(41, 1991), validTrack(42, 1992)},
	}}
	history := &fakeHistory{listened: map[int64]bool{40: true, 41: true, 42: true}}
	engine := newTestEngine(searcher, history)

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.NoError(t, err)
	assert.Len(t, batch, 2) // backfill is bounded to the shortfall
}

func TestRefill_BackfillBoundedByResults(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]track.Track{
		"rock": {validTrack(50, 1990)},
	}}
	history := &fakeHistory{listened: map[int64]bool{50: true}}
	engine := newTestEngine(searcher, history)

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestRefill_EmptyResultsNoBackfill(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]track.Track{}}
	engine := newTestEngine(searcher, &fakeHistory{})

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock", "jazz"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestRefill_AbortsOnSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]track.Track{
			"rock": {validTrack(60, 1990), validTrack(61, 1991)},
		},
		errs: map[string]error{"jazz": errors.New("connection reset")},
	}
	engine := newTestEngine(searcher, &fakeHistory{})

	plan := planner.Plan{Phase: planner.PhaseDiscover, Terms: []string{"rock", "jazz", "soul"}}
	batch, err := engine.Refill(context.Background(), plan, notInBuffer)

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Nil(t, batch, "partial batch must be discarded")
	// The failing term stops the refill before later terms are searched.
	assert.Equal(t, []string{"rock", "jazz"}, searcher.calls)
}
