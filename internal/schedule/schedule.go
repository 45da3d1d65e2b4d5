// Package schedule loads the weekly programming clock from YAML and
// resolves which show is on air at any instant.
//
// The base clock is day-agnostic and must tile all 1440 minutes exactly
// once. Overrides are day-aware and win over the base; a cross-midnight
// override belongs to its start day and carries into the next morning.
package schedule

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MusicProfile drives the curator: which energy window, how warm, and
// which vibes fit the show.
type MusicProfile struct {
	Name         string
	Description  string
	EnergyLow    float64
	EnergyHigh   float64
	PreferWarmth float64
	Vibes        []string
}

// Show is one named program with its curation and talk settings.
type Show struct {
	ID                 string
	Name               string
	Description        string
	SegmentAfterTracks int
	PodcastsEnabled    bool
	Music              MusicProfile
	Voices             map[string]string
}

// Block assigns a show to a minute range. Days is nil for base-clock
// blocks (every day); override blocks carry an explicit day set,
// indexed Monday=0.
type Block struct {
	StartMinute int
	EndMinute   int
	ShowID      string
	Days        map[int]bool
}

// CrossMidnight reports whether the block wraps past 00:00.
func (b Block) CrossMidnight() bool { return b.EndMinute <= b.StartMinute }

// Matches reports whether the block is active at t.
func (b Block) Matches(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	day := mondayIndex(t.Weekday())
	prevDay := (day + 6) % 7

	if b.Days == nil {
		if !b.CrossMidnight() {
			return minute >= b.StartMinute && minute < b.EndMinute
		}
		return minute >= b.StartMinute || minute < b.EndMinute
	}
	if !b.CrossMidnight() {
		return b.Days[day] && minute >= b.StartMinute && minute < b.EndMinute
	}
	return (b.Days[day] && minute >= b.StartMinute) ||
		(b.Days[prevDay] && minute < b.EndMinute)
}

// Resolved is the on-air program at a given instant.
type Resolved struct {
	Show         Show
	PodcastHours map[int]bool
	// Period is the coarse time-of-day label (late_night, morning, ...)
	// used for history rows, segment folders, and interleave pacing.
	Period string
}

// Schedule is the validated weekly clock.
type Schedule struct {
	Shows        map[string]Show
	Base         []Block
	Overrides    []Block
	PodcastHours map[int]bool
}

// Resolve returns the active program at t. Overrides are checked first.
// A validated schedule always resolves; the error covers hand-built
// Schedule values that skipped Validate.
func (s *Schedule) Resolve(t time.Time) (Resolved, error) {
	for _, blocks := range [][]Block{s.Overrides, s.Base} {
		for _, b := range blocks {
			if b.Matches(t) {
				return Resolved{
					Show:         s.Shows[b.ShowID],
					PodcastHours: s.PodcastHours,
					Period:       PeriodFor(t.Hour()),
				}, nil
			}
		}
	}
	return Resolved{}, fmt.Errorf("no schedule block covers %s", t.Format("Mon 15:04"))
}

// Validate checks the whole clock: full base coverage without overlap,
// known show references, sane podcast hours and show settings.
func (s *Schedule) Validate() error {
	if len(s.Base) == 0 {
		return fmt.Errorf("schedule.base is empty")
	}
	var coverage [1440]int
	for _, b := range s.Base {
		for _, r := range expandMinutes(b) {
			for m := r[0]; m < r[1]; m++ {
				coverage[m]++
			}
		}
	}
	for m, c := range coverage {
		if c == 0 {
			return fmt.Errorf("schedule.base does not cover the full day (first gap at %02d:%02d)", m/60, m%60)
		}
	}
	for m, c := range coverage {
		if c > 1 {
			return fmt.Errorf("schedule.base overlaps itself (first overlap at %02d:%02d)", m/60, m%60)
		}
	}
	for _, b := range append(append([]Block{}, s.Base...), s.Overrides...) {
		if _, ok := s.Shows[b.ShowID]; !ok {
			return fmt.Errorf("schedule references unknown show: %q", b.ShowID)
		}
	}
	for h := range s.PodcastHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("podcasts.hours contains invalid hour: %d", h)
		}
	}
	ids := make([]string, 0, len(s.Shows))
	for id := range s.Shows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := s.Shows[id].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (sh Show) validate() error {
	if sh.SegmentAfterTracks < 1 {
		return fmt.Errorf("show %s: segment_after_tracks must be >= 1", sh.ID)
	}
	m := sh.Music
	if m.EnergyLow < 0 || m.EnergyHigh > 1 || m.EnergyLow >= m.EnergyHigh {
		return fmt.Errorf("show %s: invalid music.energy_range [%g, %g]", sh.ID, m.EnergyLow, m.EnergyHigh)
	}
	if m.PreferWarmth < 0 || m.PreferWarmth > 1 {
		return fmt.Errorf("show %s: invalid music.prefer_warmth %g", sh.ID, m.PreferWarmth)
	}
	if len(m.Vibes) == 0 {
		return fmt.Errorf("show %s: music.vibes is empty", sh.ID)
	}
	return nil
}

// expandMinutes splits a cross-midnight block into its two same-day
// halves for the coverage scan.
func expandMinutes(b Block) [][2]int {
	if !b.CrossMidnight() {
		return [][2]int{{b.StartMinute, b.EndMinute}}
	}
	return [][2]int{{b.StartMinute, 1440}, {0, b.EndMinute}}
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ── YAML loading ──────────────────────────────────────────────────────

type rawFile struct {
	Shows    map[string]rawShow `yaml:"shows"`
	Podcasts struct {
		Hours []int `yaml:"hours"`
	} `yaml:"podcasts"`
	Schedule struct {
		Base      []rawBlock `yaml:"base"`
		Overrides []rawBlock `yaml:"overrides"`
	} `yaml:"schedule"`
}

type rawShow struct {
	Name               string `yaml:"name"`
	Description        string `yaml:"description"`
	SegmentAfterTracks *int   `yaml:"segment_after_tracks"`
	PodcastsEnabled    *bool  `yaml:"podcasts_enabled"`
	Music              struct {
		EnergyRange  []float64 `yaml:"energy_range"`
		PreferWarmth *float64  `yaml:"prefer_warmth"`
		Vibes        []string  `yaml:"vibes"`
	} `yaml:"music"`
	Voices map[string]string `yaml:"voices"`
}

type rawBlock struct {
	Start string   `yaml:"start"`
	End   string   `yaml:"end"`
	Show  string   `yaml:"show"`
	Days  []string `yaml:"days"`
}

// Load reads and validates a schedule file.
func Load(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds and validates a schedule from YAML bytes.
func Parse(data []byte) (*Schedule, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schedule yaml: %w", err)
	}
	if len(raw.Shows) == 0 {
		return nil, fmt.Errorf("missing or empty `shows` section")
	}

	shows := make(map[string]Show, len(raw.Shows))
	for id, rs := range raw.Shows {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("invalid empty show id")
		}
		if strings.TrimSpace(rs.Name) == "" || strings.TrimSpace(rs.Description) == "" {
			return nil, fmt.Errorf("show %s: missing name/description", id)
		}
		sh := Show{
			ID:                 id,
			Name:               strings.TrimSpace(rs.Name),
			Description:        strings.TrimSpace(rs.Description),
			SegmentAfterTracks: 1,
			PodcastsEnabled:    true,
			Voices:             rs.Voices,
		}
		if rs.SegmentAfterTracks != nil {
			sh.SegmentAfterTracks = *rs.SegmentAfterTracks
		}
		if rs.PodcastsEnabled != nil {
			sh.PodcastsEnabled = *rs.PodcastsEnabled
		}
		if len(rs.Music.EnergyRange) != 2 {
			return nil, fmt.Errorf("show %s: invalid music.energy_range", id)
		}
		if rs.Music.PreferWarmth == nil {
			return nil, fmt.Errorf("show %s: invalid music.prefer_warmth", id)
		}
		vibes := make([]string, 0, len(rs.Music.Vibes))
		for _, v := range rs.Music.Vibes {
			if v = strings.TrimSpace(v); v != "" {
				vibes = append(vibes, v)
			}
		}
		sh.Music = MusicProfile{
			Name:         sh.Name,
			Description:  sh.Description,
			EnergyLow:    rs.Music.EnergyRange[0],
			EnergyHigh:   rs.Music.EnergyRange[1],
			PreferWarmth: *rs.Music.PreferWarmth,
			Vibes:        vibes,
		}
		shows[id] = sh
	}

	hours := make(map[int]bool, len(raw.Podcasts.Hours))
	for _, h := range raw.Podcasts.Hours {
		hours[h] = true
	}

	if len(raw.Schedule.Base) == 0 {
		return nil, fmt.Errorf("schedule.base must be a non-empty list")
	}
	base, err := parseBlocks(raw.Schedule.Base, false)
	if err != nil {
		return nil, err
	}
	overrides, err := parseBlocks(raw.Schedule.Overrides, true)
	if err != nil {
		return nil, err
	}

	s := &Schedule{Shows: shows, Base: base, Overrides: overrides, PodcastHours: hours}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseBlocks(raw []rawBlock, dayAware bool) ([]Block, error) {
	out := make([]Block, 0, len(raw))
	for _, rb := range raw {
		start, err := ParseTimeHHMM(rb.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimeHHMM(rb.End)
		if err != nil {
			return nil, err
		}
		if start == end {
			return nil, fmt.Errorf("schedule block start and end cannot be the same (%s)", rb.Start)
		}
		showID := strings.TrimSpace(rb.Show)
		if showID == "" {
			return nil, fmt.Errorf("schedule block missing `show`")
		}
		b := Block{StartMinute: start, EndMinute: end, ShowID: showID}
		if dayAware {
			days, err := parseDays(rb.Days)
			if err != nil {
				return nil, err
			}
			b.Days = days
		}
		out = append(out, b)
	}
	return out, nil
}

var hhmmRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseTimeHHMM converts "HH:MM" to minutes after midnight.
func ParseTimeHHMM(s string) (int, error) {
	m := hhmmRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time (expected HH:MM): %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("invalid time (out of range): %q", s)
	}
	return hour*60 + minute, nil
}

var dayAliases = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

func parseDays(tokens []string) (map[int]bool, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("override block missing required field: days")
	}
	days := make(map[int]bool)
	for _, raw := range tokens {
		tok := strings.ToLower(strings.TrimSpace(raw))
		switch tok {
		case "daily", "all":
			for i := 0; i < 7; i++ {
				days[i] = true
			}
		case "weekday":
			for i := 0; i < 5; i++ {
				days[i] = true
			}
		case "weekend":
			days[5], days[6] = true, true
		default:
			idx, ok := dayAliases[tok]
			if !ok {
				return nil, fmt.Errorf("invalid day token: %q", raw)
			}
			days[idx] = true
		}
	}
	return days, nil
}
