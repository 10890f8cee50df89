// Package planner turns listening history into weighted search terms.
package planner

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/app/query"
)

// Number of search terms produced by every phase.
const termsPerPlan = 5

// DefaultDiscoverThreshold is the like count below which the planner stays in
// the cold-start discover phase.
const DefaultDiscoverThreshold = 10

// weightPreferences assigns positional weights to the top ranked styles and
// authors. baseWeight is the flat exploration floor for the random picks.
var weightPreferences = []float64{0.4, 0.3, 0.25, 0.25, 0.25}

const baseWeight = 0.2

// Phase identifies which strategy produced a plan.
type Phase int

const (
	PhaseMood         Phase = iota // Externally supplied mood override
	PhaseDiscover                  // Cold start, too few likes to personalize
	PhasePersonalized              // Taste-weighted terms plus a year bucket
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseMood:
		return "mood"
	case PhaseDiscover:
		return "discover"
	case PhasePersonalized:
		return "personalized"
	default:
		return "unknown"
	}
}

// Plan is one refill's worth of sanitized search terms. YearBucket is only
// set in the personalized phase; it constrains the last (exploration) term.
type Plan struct {
	Phase      Phase
	Terms      []string
	YearBucket int // 0 when no year constraint applies
}

// TasteReader is the read-only view of the taste store the planner needs.
// Implementations return safe defaults (empty lists, zero counts) on storage
// failure; the planner never sees an error for expected conditions.
type TasteReader interface {
	LikedCount(ctx context.Context) int
	TopStyles(ctx context.Context, limit int) []string
	TopAuthors(ctx context.Context, limit int) []string
	TopYearBucketChoices(ctx context.Context) []int
}

// candidate is a transient (term, weight) pair. Never persisted.
type candidate struct {
	term   string
	weight float64
}

// Planner builds search plans from taste data, a mood override, or the
// cold-start vocabulary.
type Planner struct {
	taste     TasteReader
	threshold int
	rng       *rand.Rand

	mu   sync.Mutex
	mood string // pending mood override, consumed by the next Plan call
}

// New creates a planner. threshold <= 0 selects DefaultDiscoverThreshold.
func New(taste TasteReader, threshold int, rng *rand.Rand) *Planner {
	if threshold <= 0 {
		threshold = DefaultDiscoverThreshold
	}
	return &Planner{taste: taste, threshold: threshold, rng: rng}
}

// SetMood arms a mood override for exactly one refill cycle. Unknown moods
// are ignored; an empty string clears a pending override.
func (p *Planner) SetMood(mood string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if mood != "" && !IsKnownMood(mood) {
		zlog.Warn().Str("mood", mood).Msg("ignoring unknown mood override")
		return
	}
	p.mood = mood
}

// Plan produces the next refill's search terms. Phase priority: an armed mood
// override wins, then cold-start discovery while the user has fewer than
// threshold likes, then the personalized phase.
func (p *Planner) Plan(ctx context.Context) Plan {
	p.mu.Lock()
	mood := p.mood
	p.mood = ""
	p.mu.Unlock()

	var plan Plan
	switch {
	case mood != "":
		plan = p.planMood(mood)
	case p.taste.LikedCount(ctx) < p.threshold:
		plan = p.planDiscover()
	default:
		plan = p.planPersonalized(ctx)
	}

	for i, term := range plan.Terms {
		plan.Terms[i] = query.Sanitize(term)
	}

	zlog.Debug().
		Stringer("phase", plan.Phase).
		Strs("terms", plan.Terms).
		Int("year_bucket", plan.YearBucket).
		Msg("built search plan")
	return plan
}

// planMood picks terms uniformly without replacement from the mood's
// synonym vocabulary.
func (p *Planner) planMood(mood string) Plan {
	return Plan{Phase: PhaseMood, Terms: p.sample(MoodKeywords[mood], termsPerPlan)}
}

// planDiscover picks distinct genres uniformly from the global vocabulary.
// Used until the user has liked enough tracks for taste data to mean much.
func (p *Planner) planDiscover() Plan {
	return Plan{Phase: PhaseDiscover, Terms: p.sample(GlobalStyles, termsPerPlan)}
}

// planPersonalized builds the weighted candidate set from like history:
// ranked top styles/authors get positional weights, a few random liked
// styles/authors get the flat exploration weight, every weight is jittered
// by +/-10%, and the best four distinct terms survive. A random global style
// and the top year bucket round out the plan.
func (p *Planner) planPersonalized(ctx context.Context) Plan {
	styles := p.taste.TopStyles(ctx, len(weightPreferences))
	authors := p.taste.TopAuthors(ctx, len(weightPreferences))

	candidates := make([]candidate, 0, 2*len(weightPreferences)+6)
	for i, s := range styles {
		candidates = append(candidates, candidate{term: s, weight: weightPreferences[i]})
	}
	for i, a := range authors {
		candidates = append(candidates, candidate{term: a, weight: weightPreferences[i]})
	}

	for _, s := range p.sample(p.taste.TopStyles(ctx, -1), 3) {
		candidates = append(candidates, candidate{term: s, weight: baseWeight})
	}
	for _, a := range p.sample(p.taste.TopAuthors(ctx, -1), 3) {
		candidates = append(candidates, candidate{term: a, weight: baseWeight})
	}

	// Slight random variation for diversity.
	for i := range candidates {
		candidates[i].weight *= 1 + (p.rng.Float64()-0.5)*0.2
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})

	selected := make([]string, 0, 4)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.term]; dup {
			continue
		}
		seen[c.term] = struct{}{}
		selected = append(selected, c.term)
		if len(selected) == 4 {
			break
		}
	}

	// Rank no longer matters once a term made the cut.
	p.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	selected = append(selected, GlobalStyles[p.rng.Intn(len(GlobalStyles))])

	plan := Plan{Phase: PhasePersonalized, Terms: selected}
	if choices := p.taste.TopYearBucketChoices(ctx); len(choices) > 0 {
		plan.YearBucket = choices[p.rng.Intn(len(choices))]
	}
	return plan
}

// sample returns up to n distinct elements of values in random order.
func (p *Planner) sample(values []string, n int) []string {
	shuffled := make([]string, len(values))
	copy(shuffled, values)
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
