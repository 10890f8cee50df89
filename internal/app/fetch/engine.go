// Package fetch turns planned search terms into accepted feed candidates.
package fetch

import (
	"context"
	"math/rand"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/app/planner"
	"github.com/osa030/swipebox/internal/domain/taste"
	"github.com/osa030/swipebox/internal/domain/track"
)

// DefaultQuotaPerTerm is the number of tracks accepted per search term before
// backfill.
const DefaultQuotaPerTerm = 2

// ErrTransient marks refill failures caused by the search transport or a
// non-success API response. The feed keeps its buffer and offers a retry.
var ErrTransient = errors.New("search temporarily unavailable")

// IsTransient reports whether err aborted a refill for a retryable reason.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Searcher is the keyword search dependency.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]track.Track, error)
}

// History answers whether a track was ever surfaced to the user.
// Implementations return false on storage failure rather than erroring.
type History interface {
	AlreadyListened(ctx context.Context, trackID int64) bool
}

// Engine fetches, validates, deduplicates and quotas search results.
type Engine struct {
	searcher    Searcher
	history     History
	quota       int
	resultLimit int
	rng         *rand.Rand
}

// New creates an engine. quota <= 0 selects DefaultQuotaPerTerm; resultLimit
// <= 0 defers to the searcher's default.
func New(searcher Searcher, history History, quota, resultLimit int, rng *rand.Rand) *Engine {
	if quota <= 0 {
		quota = DefaultQuotaPerTerm
	}
	return &Engine{
		searcher:    searcher,
		history:     history,
		quota:       quota,
		resultLimit: resultLimit,
		rng:         rng,
	}
}

// Refill executes one search per plan term and returns the accepted batch.
// inBuffer reports live feed-buffer membership by track ID. Any search
// failure aborts the whole refill with ErrTransient; nothing collected so
// far is returned, so the caller's append stays all-or-nothing.
func (e *Engine) Refill(ctx context.Context, plan planner.Plan, inBuffer func(id int64) bool) ([]track.Track, error) {
	var selected []track.Track
	seen := make(map[int64]struct{})

	for i, term := range plan.Terms {
		results, err := e.searcher.Search(ctx, term, e.resultLimit)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "search for %q failed", term), ErrTransient)
		}

		// The year constraint applies only to the final, exploration term of
		// a personalized plan.
		yearBucket := 0
		if plan.YearBucket > 0 && i == len(plan.Terms)-1 {
			yearBucket = plan.YearBucket
		}

		accepted := 0
		for j := 0; j < len(results) && accepted < e.quota; j++ {
			t := results[j]
			if !t.IsComplete() {
				continue
			}
			if _, dup := seen[t.TrackID]; dup {
				continue
			}
			if inBuffer(t.TrackID) || e.history.AlreadyListened(ctx, t.TrackID) {
				continue
			}
			if yearBucket > 0 && !inYearBucket(&t, yearBucket) {
				continue
			}
			selected = append(selected, t)
			seen[t.TrackID] = struct{}{}
			accepted++
		}

		// Guarantee forward feed progress even when taste constraints are
		// unsatisfiable: top up the term's quota with random raw results.
		if accepted < e.quota && len(results) > 0 {
			needed := e.quota - accepted
			backfill := e.randomPick(results, needed)
			selected = append(selected, backfill...)
			for _, t := range backfill {
				seen[t.TrackID] = struct{}{}
			}
			zlog.Debug().
				Str("term", term).
				Int("accepted", accepted).
				Int("backfilled", len(backfill)).
				Msg("term quota backfilled")
		}
	}

	// Destroy per-term grouping so the feed does not cluster by search term.
	e.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	zlog.Info().
		Stringer("phase", plan.Phase).
		Int("terms", len(plan.Terms)).
		Int("batch", len(selected)).
		Msg("refill batch assembled")
	return selected, nil
}

// inYearBucket checks the track's release year against (bucket-size, bucket].
func inYearBucket(t *track.Track, bucket int) bool {
	year, ok := t.ReleaseYear()
	if !ok {
		return false
	}
	return year > bucket-taste.BucketSize && year <= bucket
}

// randomPick draws up to n results uniformly without replacement. The raw
// result set is used on purpose: backfill skips the dedup, validity and year
// filters.
func (e *Engine) randomPick(results []track.Track, n int) []track.Track {
	shuffled := make([]track.Track, len(results))
	copy(shuffled, results)
	e.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
