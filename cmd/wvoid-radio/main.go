// Command wvoid-radio: the WVOID-FM station. Run the streamer, the
// public API and the watchdog as separate processes from one binary.
//
//	run        Stream the station: curate, decode, encode to Icecast. For systemd.
//	api        Serve the public now-playing/health/messages API
//	supervise  Watch station components, restart and alert
//	schedule   validate | now [-at "YYYY-MM-DD HH:MM"] against the programming schedule
//	history    stats | recent | most-played from the play log
//	probe      Report duration and tags for audio files
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wvoid/wvoid-radio/internal/api"
	"github.com/wvoid/wvoid-radio/internal/command"
	"github.com/wvoid/wvoid-radio/internal/config"
	"github.com/wvoid/wvoid-radio/internal/director"
	"github.com/wvoid/wvoid-radio/internal/discogs"
	"github.com/wvoid/wvoid-radio/internal/engine"
	"github.com/wvoid/wvoid-radio/internal/history"
	"github.com/wvoid/wvoid-radio/internal/library"
	"github.com/wvoid/wvoid-radio/internal/messages"
	"github.com/wvoid/wvoid-radio/internal/probe"
	"github.com/wvoid/wvoid-radio/internal/publisher"
	"github.com/wvoid/wvoid-radio/internal/schedule"
	"github.com/wvoid/wvoid-radio/internal/supervisor"
)

func main() {
	_ = config.LoadEnvFile(".env")
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[wvoid] ")

	scheduleCmd := flag.NewFlagSet("schedule", flag.ExitOnError)
	scheduleAt := scheduleCmd.String("at", "", `Resolve at this local time ("YYYY-MM-DD HH:MM", default now)`)

	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	historyLimit := historyCmd.Int("limit", 20, "Rows to show for recent/most-played")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "run":
		runStation(cfg)

	case "api":
		runAPI(cfg)

	case "supervise":
		notifier := supervisor.NewPushover(os.Getenv("PUSHOVER_USER"), os.Getenv("PUSHOVER_TOKEN"))
		if notifier == nil {
			log.Printf("PUSHOVER_USER/PUSHOVER_TOKEN not set; alerts disabled")
		}
		w := supervisor.New(supervisor.StationComponents(cfg), notifier)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		_ = w.Run(ctx)

	case "schedule":
		_ = scheduleCmd.Parse(os.Args[2:])
		runSchedule(cfg, scheduleCmd.Args(), *scheduleAt)

	case "history":
		_ = historyCmd.Parse(os.Args[2:])
		runHistory(cfg, historyCmd.Args(), *historyLimit)

	case "probe":
		runProbe(cfg, os.Args[2:])

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <run|api|supervise|schedule|history|probe> [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  run        Stream the station to Icecast (for systemd)\n")
	fmt.Fprintf(os.Stderr, "  api        Serve the public now-playing API\n")
	fmt.Fprintf(os.Stderr, "  supervise  Watch components, restart and alert\n")
	fmt.Fprintf(os.Stderr, "  schedule   validate | now [-at \"YYYY-MM-DD HH:MM\"]\n")
	fmt.Fprintf(os.Stderr, "  history    stats | recent | most-played [-limit N]\n")
	fmt.Fprintf(os.Stderr, "  probe      Report duration and tags for audio files\n")
}

// runStation wires the full streaming pipeline and blocks until a
// shutdown signal.
func runStation(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		os.Exit(1)
	}
	sched := loadSchedule(cfg.SchedulePath, true)

	lib := library.NewIndex(cfg.MusicDirs, cfg.SegmentsDir, cfg.PodcastsDir)
	if lib.Empty() {
		log.Printf("library is empty: nothing under %v, %s or %s",
			cfg.MusicDirs, cfg.SegmentsDir, cfg.PodcastsDir)
		os.Exit(1)
	}

	var hist director.History
	var rec engine.Recorder
	st, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Printf("history disabled: %v", err)
	} else {
		defer st.Close()
		hist, rec = st, st
	}

	prober := probe.New(cfg.ProbeTimeout)
	dir := director.New(lib, hist, sched, prober.Duration, director.Options{
		QueueSize:       cfg.QueueSize,
		MaxTrackSeconds: cfg.MaxTrackSeconds,
		ChunkMinSeconds: cfg.ChunkMinSeconds,
		ChunkMaxSeconds: cfg.ChunkMaxSeconds,
		Policy:          directorPolicy(cfg.SegmentPolicy),
	})

	listeners := publisher.NewListenerCounter(cfg.StatusURL(), cfg.ListenerCacheTTL)
	pub := publisher.New(cfg.NowPlayingPaths, listeners)
	mbox := command.New(cfg.CommandFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := lib.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("library watch disabled: %v", err)
		}
	}()

	eng := engine.New(cfg, dir, pub, rec, mbox)
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("engine: %v", err)
		os.Exit(1)
	}
	log.Printf("shutdown complete")
}

func runAPI(cfg *config.Config) {
	var hist api.HistoryReader
	st, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Printf("history disabled: %v", err)
	} else {
		defer st.Close()
		hist = st
	}
	dg := discogs.New(cfg.DiscogsToken)
	if dg == nil {
		log.Printf("DISCOGS_TOKEN not set; /discogs and /qr disabled")
	}
	srv := api.New(cfg, messages.NewStore(cfg.MessagesPath), hist, dg)
	if err := srv.ListenAndServe(); err != nil {
		log.Printf("api: %v", err)
		os.Exit(1)
	}
}

func runSchedule(cfg *config.Config, args []string, at string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: schedule <validate|now> [-at \"YYYY-MM-DD HH:MM\"]\n")
		os.Exit(1)
	}
	switch args[0] {
	case "validate":
		s, err := schedule.Load(cfg.SchedulePath)
		if err != nil {
			log.Printf("load %s: %v", cfg.SchedulePath, err)
			os.Exit(1)
		}
		if err := s.Validate(); err != nil {
			log.Printf("schedule invalid: %v", err)
			os.Exit(1)
		}
		log.Printf("%s: OK, %d shows", cfg.SchedulePath, len(s.Shows))

	case "now":
		s := loadSchedule(cfg.SchedulePath, false)
		t := time.Now()
		if at != "" {
			var err error
			t, err = time.ParseInLocation("2006-01-02 15:04", at, time.Local)
			if err != nil {
				log.Printf("bad -at time %q: %v", at, err)
				os.Exit(1)
			}
		}
		res, err := s.Resolve(t)
		if err != nil {
			log.Printf("resolve: %v", err)
			os.Exit(1)
		}
		printJSON(map[string]any{
			"time":          t.Format("2006-01-02 15:04 Mon"),
			"show":          res.Show,
			"time_period":   res.Period,
			"podcast_hours": res.PodcastHours,
		})

	default:
		fmt.Fprintf(os.Stderr, "Unknown schedule subcommand %q\n", args[0])
		os.Exit(1)
	}
}

func runHistory(cfg *config.Config, args []string, limit int) {
	st, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Printf("open %s: %v", cfg.HistoryDBPath, err)
		os.Exit(1)
	}
	defer st.Close()

	sub := "stats"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "stats":
		printJSON(st.Summary())
	case "recent":
		printJSON(st.Recent(limit))
	case "most-played":
		printJSON(st.MostPlayed(limit))
	default:
		fmt.Fprintf(os.Stderr, "Unknown history subcommand %q\n", sub)
		os.Exit(1)
	}
}

func runProbe(cfg *config.Config, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: probe <file> [file...]\n")
		os.Exit(1)
	}
	p := probe.New(cfg.ProbeTimeout)
	ctx := context.Background()
	for _, path := range paths {
		dur, err := p.Duration(ctx, path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		tags, _ := probe.Tags(path)
		log.Printf("%s: %.1fs artist=%q title=%q album=%q", path, dur, tags.Artist, tags.Title, tags.Album)
	}
}

// loadSchedule loads the programming schedule, falling back to the
// built-in week when the file is missing. A file that exists but does
// not validate is a config error when strict.
func loadSchedule(path string, strict bool) *schedule.Schedule {
	s, err := schedule.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("no schedule at %s, using built-in programming", path)
			return schedule.Fallback()
		}
		log.Printf("load %s: %v", path, err)
		if strict {
			os.Exit(1)
		}
		return schedule.Fallback()
	}
	if err := s.Validate(); err != nil {
		log.Printf("schedule invalid: %v", err)
		if strict {
			os.Exit(1)
		}
		return schedule.Fallback()
	}
	log.Printf("loaded schedule from %s (%d shows)", path, len(s.Shows))
	return s
}

func directorPolicy(p config.SegmentPolicy) director.Policy {
	if p == config.PolicyProbabilistic {
		return director.PolicyProbabilistic
	}
	return director.PolicyCadence
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("encode: %v", err)
	}
}
