// Package director decides what plays next: it curates music queues for
// the current show, interleaves talk segments and podcasts, and chops
// over-long tracks into listenable windows. The engine pulls one item
// at a time and reports what happened.
package director

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/wvoid/wvoid-radio/internal/library"
	"github.com/wvoid/wvoid-radio/internal/schedule"
)

// Item is one playback decision.
type Item struct {
	Asset  library.Asset
	Name   string
	Mood   library.Mood
	Speech bool
	// Offset/Length select a sub-window of the file. Length 0 means
	// play to the end.
	Offset float64
	Length float64
	Show   schedule.Show
	Period string
	// SingleUse items are deleted after a complete play.
	SingleUse bool
}

// History is the subset of the play log the director consults.
type History interface {
	FilterRecent(paths []string, window time.Duration) []string
	WasPlayedRecently(path string, window time.Duration) bool
}

// DurationFunc probes a file's length in seconds.
type DurationFunc func(ctx context.Context, path string) (float64, error)

// Policy selects the segment interleave strategy.
type Policy int

const (
	// PolicyCadence plays a segment after the show's configured number
	// of consecutive music tracks.
	PolicyCadence Policy = iota
	// PolicyProbabilistic spaces segments by period-specific min/max
	// track counts with a per-period probability in between.
	PolicyProbabilistic
)

// Options tune the director. Zero values get sane defaults.
type Options struct {
	QueueSize       int
	MaxTrackSeconds float64
	ChunkMinSeconds float64
	ChunkMaxSeconds float64
	Policy          Policy
	// Now and Rand are overridable for tests.
	Now  func() time.Time
	Rand *rand.Rand
}

// Director is single-goroutine state; the engine is its only caller.
type Director struct {
	lib      *library.Index
	hist     History
	sched    *schedule.Schedule
	duration DurationFunc
	opt      Options

	queue              []library.Asset
	currentShowID      string
	tracksSinceSegment int
	lastSegmentType    string
	lastPodcastSlot    string
	forceSegment       bool
	forcePodcast       bool
}

// New wires a director. hist may be nil (no repeat protection) and
// duration may be nil (nothing gets chopped).
func New(lib *library.Index, hist History, sched *schedule.Schedule, duration DurationFunc, opt Options) *Director {
	if opt.QueueSize < 1 {
		opt.QueueSize = 15
	}
	if opt.MaxTrackSeconds <= 0 {
		opt.MaxTrackSeconds = 150
	}
	if opt.ChunkMinSeconds <= 0 {
		opt.ChunkMinSeconds = 90
	}
	if opt.ChunkMaxSeconds < opt.ChunkMinSeconds {
		opt.ChunkMaxSeconds = opt.ChunkMinSeconds
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Rand == nil {
		opt.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Director{lib: lib, hist: hist, sched: sched, duration: duration, opt: opt}
}

// ForceSegment makes the next decision a talk segment.
func (d *Director) ForceSegment() { d.forceSegment = true }

// ForcePodcast makes the next decision a podcast.
func (d *Director) ForcePodcast() { d.forcePodcast = true }

// Next returns the next item to play. It fails only when the library
// has nothing playable at all.
func (d *Director) Next(ctx context.Context) (Item, error) {
	now := d.opt.Now()
	resolved, err := d.sched.Resolve(now)
	if err != nil {
		return Item{}, err
	}
	show := resolved.Show
	period := resolved.Period

	if show.ID != d.currentShowID {
		if d.currentShowID != "" {
			log.Printf("director: show change %s -> %s, re-curating", d.currentShowID, show.ID)
		}
		d.currentShowID = show.ID
		d.queue = nil
	}

	// A forced podcast outranks a forced segment: podcasts are long-form
	// and the operator forcing one wants it now, not after a break.
	if pod, ok := d.maybePodcast(now, resolved); ok {
		return d.speechItem(pod, "podcast", show, period), nil
	}
	if seg, ok := d.maybeSegment(period); ok {
		d.tracksSinceSegment = 0
		d.forceSegment = false
		return d.speechItem(seg, "segment", show, period), nil
	}

	if len(d.queue) == 0 {
		d.curate(show, period)
	}
	if len(d.queue) == 0 {
		// No music anywhere: fall back to looping segments so the
		// mount never goes silent.
		if segs := d.lib.Segments(period); len(segs) > 0 {
			seg := d.selectSegment(segs)
			d.lastSegmentType = library.SegmentType(seg.Path)
			return d.speechItem(seg, "segment", show, period), nil
		}
		return Item{}, fmt.Errorf("library is empty: no music and no segments")
	}

	track := d.queue[0]
	d.queue = d.queue[1:]
	d.tracksSinceSegment++

	item := Item{
		Asset:  track,
		Name:   library.CleanName(track),
		Mood:   library.Classify(track.Path),
		Show:   show,
		Period: period,
	}
	item.Offset, item.Length = d.chop(ctx, track.Path)
	return item, nil
}

func (d *Director) speechItem(a library.Asset, kind string, show schedule.Show, period string) Item {
	return Item{
		Asset:     a,
		Name:      library.CleanName(a),
		Speech:    true,
		Show:      show,
		Period:    period,
		SingleUse: kind == "segment" && library.IsSingleUse(a.Path),
	}
}

// maybePodcast fires at most once per scheduled hour, or when forced.
func (d *Director) maybePodcast(now time.Time, resolved schedule.Resolved) (library.Asset, bool) {
	pods := d.lib.Podcasts()
	if len(pods) == 0 {
		d.forcePodcast = false
		return library.Asset{}, false
	}
	if d.forcePodcast {
		d.forcePodcast = false
		return d.selectPodcast(pods), true
	}
	if !resolved.Show.PodcastsEnabled || !resolved.PodcastHours[now.Hour()] {
		return library.Asset{}, false
	}
	slot := now.Format("2006010215")
	if slot == d.lastPodcastSlot {
		return library.Asset{}, false
	}
	d.lastPodcastSlot = slot
	return d.selectPodcast(pods), true
}

// selectPodcast prefers episodes unheard in the last day, falling back
// to a random pick among the five newest.
func (d *Director) selectPodcast(pods []library.Asset) library.Asset {
	if d.hist != nil {
		var unplayed []library.Asset
		for _, p := range pods {
			if !d.hist.WasPlayedRecently(p.Path, 24*time.Hour) {
				unplayed = append(unplayed, p)
			}
		}
		if len(unplayed) > 0 {
			return unplayed[d.opt.Rand.Intn(len(unplayed))]
		}
	}
	n := len(pods)
	if n > 5 {
		n = 5
	}
	return pods[d.opt.Rand.Intn(n)]
}

func (d *Director) maybeSegment(period string) (library.Asset, bool) {
	segs := d.lib.Segments(period)
	if len(segs) == 0 {
		return library.Asset{}, false
	}
	if !d.forceSegment && !d.segmentDue(period) {
		return library.Asset{}, false
	}
	seg := d.selectSegment(segs)
	d.lastSegmentType = library.SegmentType(seg.Path)
	return seg, true
}

func (d *Director) segmentDue(period string) bool {
	switch d.opt.Policy {
	case PolicyProbabilistic:
		minTracks, maxTracks := schedule.SegmentSpacing(period)
		if d.tracksSinceSegment < minTracks {
			return false
		}
		if d.tracksSinceSegment >= maxTracks {
			return true
		}
		return d.opt.Rand.Float64() < schedule.SegmentProbability(period)
	default:
		show, ok := d.sched.Shows[d.currentShowID]
		cadence := 3
		if ok && show.SegmentAfterTracks >= 1 {
			cadence = show.SegmentAfterTracks
		}
		return d.tracksSinceSegment >= cadence
	}
}

// selectSegment: listener dedications jump the line (newest first)
// unless one just played; otherwise avoid repeating the previous type,
// leaning toward long-form talk.
func (d *Director) selectSegment(segs []library.Asset) library.Asset {
	var dedications []library.Asset
	for _, s := range segs {
		if library.SegmentType(s.Path) == "listener_dedication" {
			dedications = append(dedications, s)
		}
	}
	if len(dedications) > 0 && d.lastSegmentType != "listener_dedication" {
		sort.Slice(dedications, func(i, j int) bool {
			return modTime(dedications[i].Path).After(modTime(dedications[j].Path))
		})
		return dedications[0]
	}

	available := segs
	if d.lastSegmentType != "" {
		var fresh []library.Asset
		for _, s := range segs {
			if library.SegmentType(s.Path) != d.lastSegmentType {
				fresh = append(fresh, s)
			}
		}
		if len(fresh) > 0 {
			available = fresh
		}
	}

	var long, short []library.Asset
	for _, s := range available {
		st := library.SegmentType(s.Path)
		switch {
		case library.LongSegmentTypes[st]:
			long = append(long, s)
		case library.ShortSegmentTypes[st]:
			short = append(short, s)
		}
	}
	longBias := map[string]float64{
		"late_night": 0.85, "night": 0.8, "early_afternoon": 0.8,
		"evening": 0.7, "afternoon": 0.65,
	}
	bias, ok := longBias[d.currentPeriod()]
	if !ok {
		bias = 0.6
	}
	if len(long) > 0 && (len(short) == 0 || d.opt.Rand.Float64() < bias) {
		return long[d.opt.Rand.Intn(len(long))]
	}
	if len(short) > 0 {
		return short[d.opt.Rand.Intn(len(short))]
	}
	return available[d.opt.Rand.Intn(len(available))]
}

func (d *Director) currentPeriod() string {
	return schedule.PeriodFor(d.opt.Now().Hour())
}

// chop picks a random sub-window of long tracks. Unknown duration plays
// the file in full; known short durations are passed through so the
// decoder can place the fade-out.
func (d *Director) chop(ctx context.Context, path string) (offset, length float64) {
	if d.duration == nil {
		return 0, 0
	}
	dur, err := d.duration(ctx, path)
	if err != nil || dur <= 0 {
		return 0, 0
	}
	if dur <= d.opt.MaxTrackSeconds {
		return 0, dur
	}
	length = d.opt.ChunkMinSeconds + d.opt.Rand.Float64()*(d.opt.ChunkMaxSeconds-d.opt.ChunkMinSeconds)
	if length > dur {
		length = dur
		return 0, length
	}
	maxStart := dur - length - 10
	if maxStart > 10 {
		offset = 10 + d.opt.Rand.Float64()*(maxStart-10)
	}
	return offset, length
}

// curate builds a fresh queue scored for the show's music profile.
func (d *Director) curate(show schedule.Show, period string) {
	music := d.lib.Music()
	if len(music) == 0 {
		return
	}
	log.Printf("director: curating for %s (%s)", show.Name, show.Music.Description)

	byPath := make(map[string]library.Asset, len(music))
	paths := make([]string, 0, len(music))
	for _, a := range music {
		byPath[a.Path] = a
		paths = append(paths, a.Path)
	}

	eligible := paths
	if d.hist != nil {
		fresh := d.hist.FilterRecent(paths, 24*time.Hour)
		if len(fresh) < d.opt.QueueSize*2 {
			fresh = d.hist.FilterRecent(paths, 6*time.Hour)
		}
		if len(fresh) > 0 {
			eligible = fresh
			log.Printf("director: %d of %d tracks eligible after history filter", len(eligible), len(paths))
		}
	}

	type scored struct {
		path  string
		score float64
	}
	ranked := make([]scored, 0, len(eligible))
	for _, p := range eligible {
		ranked = append(ranked, scored{p, d.scoreTrack(p, show.Music)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	cut := len(ranked) / 2
	if min := d.opt.QueueSize * 2; cut < min {
		cut = min
	}
	if cut > len(ranked) {
		cut = len(ranked)
	}
	topHalf := ranked[:cut]
	d.opt.Rand.Shuffle(len(topHalf), func(i, j int) {
		topHalf[i], topHalf[j] = topHalf[j], topHalf[i]
	})

	var selected []library.Asset
	picked := make(map[string]bool)
	lastVibe := ""
	for _, s := range topHalf {
		if len(selected) >= d.opt.QueueSize {
			break
		}
		vibe := library.Classify(s.path).Vibe
		if vibe == lastVibe && d.opt.Rand.Float64() < 0.6 {
			continue
		}
		selected = append(selected, byPath[s.path])
		picked[s.path] = true
		lastVibe = vibe
	}
	for _, s := range topHalf {
		if len(selected) >= d.opt.QueueSize {
			break
		}
		if !picked[s.path] {
			selected = append(selected, byPath[s.path])
			picked[s.path] = true
		}
	}
	d.queue = selected
}

// scoreTrack rates a track's fit for a music profile: up to 40 points
// for energy inside the window, 30 for warmth proximity, 30 for vibe
// rank, plus up to 10 of jitter for variety.
func (d *Director) scoreTrack(path string, profile schedule.MusicProfile) float64 {
	mood := library.Classify(path)
	score := 0.0

	if mood.Energy >= profile.EnergyLow && mood.Energy <= profile.EnergyHigh {
		score += 40
	} else if mood.Energy < profile.EnergyLow {
		score += max(0, 30-(profile.EnergyLow-mood.Energy)*50)
	} else {
		score += max(0, 30-(mood.Energy-profile.EnergyHigh)*50)
	}

	warmthDiff := mood.Warmth - profile.PreferWarmth
	if warmthDiff < 0 {
		warmthDiff = -warmthDiff
	}
	score += max(0, 30-warmthDiff*40)

	for i, v := range profile.Vibes {
		if v == mood.Vibe {
			score += 30 - float64(i)*3
			break
		}
	}

	score += d.opt.Rand.Float64() * 10
	return score
}

// Consumed tells the director a single-use item finished cleanly so the
// file can be removed and never replayed.
func (d *Director) Consumed(item Item) {
	if !item.SingleUse {
		return
	}
	if err := os.Remove(item.Asset.Path); err != nil {
		log.Printf("director: remove dedication %s: %v", item.Asset.Path, err)
		return
	}
	log.Printf("director: dedication played and removed: %s", item.Name)
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
