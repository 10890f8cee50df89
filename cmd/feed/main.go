// Package main provides the discovery feed entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/app/feed"
	"github.com/osa030/swipebox/internal/app/fetch"
	"github.com/osa030/swipebox/internal/app/livesearch"
	"github.com/osa030/swipebox/internal/app/planner"
	"github.com/osa030/swipebox/internal/app/playback"
	"github.com/osa030/swipebox/internal/app/provider"
	"github.com/osa030/swipebox/internal/infra/cache"
	"github.com/osa030/swipebox/internal/infra/config"
	"github.com/osa030/swipebox/internal/infra/logger"
	"github.com/osa030/swipebox/internal/infra/store"
)

var (
	app        = kingpin.New("swipebox-feed", "Personalized music discovery feed")
	configPath = app.Flag("config", "Path to config file").Default("config.yaml").String()

	startCmd = app.Command("start", "Start an interactive feed session").Default()

	listMoodsCmd  = app.Command("list-moods", "List available mood overrides")
	listStylesCmd = app.Command("list-styles", "List the global style vocabulary")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case startCmd.FullCommand():
		if err := runSession(cfg); err != nil {
			zlog.Error().Err(err).Msg("session failed")
			os.Exit(1)
		}
	case listMoodsCmd.FullCommand():
		for _, mood := range planner.Moods() {
			fmt.Println(mood)
		}
	case listStylesCmd.FullCommand():
		for _, style := range planner.GlobalStyles {
			fmt.Println(style)
		}
	}
}

// logDevice is the headless stand-in for an audio device: it logs the
// preview switches a real player would perform.
type logDevice struct{}

func (logDevice) Play(url string, ready func()) {
	zlog.Debug().Str("url", url).Msg("device: play")
	ready()
}
func (logDevice) Pause()  { zlog.Debug().Msg("device: pause") }
func (logDevice) Resume() { zlog.Debug().Msg("device: resume") }
func (logDevice) Stop()   { zlog.Debug().Msg("device: stop") }

func runSession(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	searcher, err := provider.New(ctx, cfg.Search)
	if err != nil {
		return err
	}

	var search fetch.Searcher = searcher
	if cfg.Cache.Enabled {
		rdb, err := cache.Connect(cfg.Cache)
		if err != nil {
			zlog.Warn().Err(err).Msg("cache unavailable, searching uncached")
		} else {
			search = cache.NewSearchCache(searcher, rdb, time.Duration(cfg.Cache.TTLSec)*time.Second)
		}
	}

	pln := planner.New(st, cfg.Feed.DiscoverThreshold, rand.New(rand.NewSource(time.Now().UnixNano())))
	engine := fetch.New(search, st, cfg.Feed.QuotaPerTerm, cfg.Feed.ResultLimit,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	coordinator := playback.New(logDevice{})
	controller := feed.New(pln, engine, st, coordinator, cfg.Feed.RefillThreshold)
	defer controller.Close()

	live := livesearch.New(search, st, time.Duration(cfg.Feed.DebounceMs)*time.Millisecond, 25)
	defer live.Close()

	go consumeEvents(ctx, controller, live)

	if err := controller.Start(ctx); err != nil {
		fmt.Println("Initial fetch failed; type 'retry' to try again.")
	} else {
		showFirst(ctx, controller)
	}

	return commandLoop(ctx, st, pln, controller, coordinator, live)
}

// consumeEvents prints feed and live search events as they arrive.
func consumeEvents(ctx context.Context, controller *feed.Controller, live *livesearch.Service) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-controller.Events():
			if !ok {
				return
			}
			switch e.Type {
			case feed.EventBatchAppended:
				zlog.Info().Int("appended", e.BatchSize).Msg("feed refilled")
			case feed.EventRefillFailed:
				fmt.Println("Feed refill failed; type 'retry' to restart the session.")
			}
		case r := <-live.Results():
			if r.Err != nil {
				fmt.Printf("Search %q failed: %v\n", r.Query, r.Err)
				continue
			}
			fmt.Printf("Results for %q:\n", r.Query)
			for i, trk := range r.Tracks {
				if i >= 10 {
					break
				}
				fmt.Printf("  %s - %s (%s)\n", trk.ArtistName, trk.TrackName, trk.CollectionName)
			}
		}
	}
}

// showFirst surfaces the seeded buffer's first track.
func showFirst(ctx context.Context, controller *feed.Controller) {
	if controller.Len() == 0 {
		return
	}
	if err := controller.AdvanceTo(ctx, 0); err != nil {
		zlog.Warn().Err(err).Msg("failed to surface first track")
		return
	}
	printCurrent(controller)
}

func commandLoop(ctx context.Context, st *store.Store, pln *planner.Planner,
	controller *feed.Controller, coordinator *playback.Coordinator, live *livesearch.Service) error {

	fmt.Println("Commands: next, like, add <playlist>, mood <name>, find <text>,")
	fmt.Println("          playlists, stats, history, pause, resume, retry, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "next":
			next := controller.Position() + 1
			if next >= controller.Len() {
				fmt.Println("Nothing buffered yet; wait for a refill or type 'retry'.")
				continue
			}
			if err := controller.AdvanceTo(ctx, next); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printCurrent(controller)

		case "like":
			current, ok := controller.Current()
			if !ok {
				fmt.Println("No current track.")
				continue
			}
			liked := !st.IsLiked(ctx, current.TrackID)
			if err := st.SetLiked(ctx, current.TrackID, liked); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if liked {
				fmt.Printf("Liked %s - %s\n", current.ArtistName, current.TrackName)
			} else {
				fmt.Printf("Unliked %s - %s\n", current.ArtistName, current.TrackName)
			}

		case "add":
			if arg == "" {
				fmt.Println("Usage: add <playlist>")
				continue
			}
			current, ok := controller.Current()
			if !ok {
				fmt.Println("No current track.")
				continue
			}
			inserted, err := st.AddToPlaylist(ctx, current, arg)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if inserted {
				fmt.Printf("Added to %q\n", arg)
			} else {
				// Already a member: treat the repeat as a toggle.
				if err := st.RemoveFromPlaylist(ctx, current.TrackID, arg); err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				fmt.Printf("Removed from %q\n", arg)
			}

		case "mood":
			if arg == "" {
				fmt.Printf("Usage: mood <%s>\n", strings.Join(planner.Moods(), "|"))
				continue
			}
			if !planner.IsKnownMood(arg) {
				fmt.Printf("Unknown mood %q. Known: %s\n", arg, strings.Join(planner.Moods(), ", "))
				continue
			}
			pln.SetMood(arg)
			fmt.Printf("Next refill will use the %q mood.\n", arg)

		case "find":
			if arg == "" {
				fmt.Println("Usage: find <text>")
				continue
			}
			live.Query(arg)

		case "playlists":
			lists := st.ListPlaylists(ctx)
			if len(lists) == 0 {
				fmt.Println("No playlists.")
				continue
			}
			for _, p := range lists {
				fmt.Printf("  %s (%d songs)\n", p.Name, p.SongCount)
			}

		case "stats":
			stats := st.Stats(ctx)
			fmt.Printf("Listened: %d  Liked: %d  Artists: %d\n",
				stats.TotalListened, stats.Liked, stats.DistinctArtists)
			if stats.TopArtist != "" {
				fmt.Printf("Top artist: %s\n", stats.TopArtist)
			}

		case "history":
			for _, q := range st.RecentSearches(ctx, 10) {
				fmt.Println("  " + q)
			}

		case "pause":
			if err := coordinator.Pause(false); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case "resume":
			coordinator.Resume()

		case "retry":
			if err := controller.Retry(ctx); err != nil {
				fmt.Printf("Retry failed: %v\n", err)
				continue
			}
			showFirst(ctx, controller)

		case "quit", "exit":
			coordinator.Stop()
			return nil

		default:
			fmt.Printf("Unknown command %q\n", cmd)
		}
	}
	return scanner.Err()
}

func printCurrent(controller *feed.Controller) {
	current, ok := controller.Current()
	if !ok {
		return
	}
	year := ""
	if y, ok := current.ReleaseYear(); ok {
		year = fmt.Sprintf(" [%d]", y)
	}
	fmt.Printf("♪ %s - %s (%s)%s  %s\n",
		current.ArtistName, current.TrackName, current.CollectionName, year, current.PrimaryGenreName)
}
