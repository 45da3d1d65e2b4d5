package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validYAML = `
shows:
  overnight:
    name: Overnight
    description: Quiet hours.
    segment_after_tracks: 2
    music:
      energy_range: [0.0, 0.4]
      prefer_warmth: 0.7
      vibes: [ambient, jazz]
  daytime:
    name: Daytime
    description: The day show.
    segment_after_tracks: 3
    music:
      energy_range: [0.4, 0.8]
      prefer_warmth: 0.5
      vibes: [funk, soul]
  special:
    name: Friday Special
    description: Late Friday takeover.
    podcasts_enabled: false
    music:
      energy_range: [0.5, 0.9]
      prefer_warmth: 0.4
      vibes: [electronic]
podcasts:
  hours: [0, 6, 12, 18]
schedule:
  base:
    - {start: "06:00", end: "22:00", show: daytime}
    - {start: "22:00", end: "06:00", show: overnight}
  overrides:
    - {start: "23:00", end: "02:00", show: special, days: [fri]}
`

// mustTime builds a local time on a specific weekday.
func mustTime(t *testing.T, weekday time.Weekday, hhmm string) time.Time {
	t.Helper()
	// 2026-08-17 is a Monday.
	base := time.Date(2026, 8, 17, 0, 0, 0, 0, time.Local)
	for base.Weekday() != weekday {
		base = base.AddDate(0, 0, 1)
	}
	min, err := ParseTimeHHMM(hhmm)
	require.NoError(t, err)
	return base.Add(time.Duration(min) * time.Minute)
}

func TestParseAndResolve(t *testing.T) {
	s, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		want    string
		podcast bool
	}{
		{"daytime block", mustTime(t, time.Monday, "12:00"), "daytime", true},
		{"overnight cross-midnight before", mustTime(t, time.Monday, "23:30"), "overnight", true},
		{"overnight cross-midnight after", mustTime(t, time.Tuesday, "03:00"), "overnight", true},
		{"override wins on friday", mustTime(t, time.Friday, "23:30"), "special", false},
		{"override carries into saturday", mustTime(t, time.Saturday, "01:30"), "special", false},
		{"no override on saturday evening", mustTime(t, time.Saturday, "23:30"), "overnight", true},
		{"base boundary start inclusive", mustTime(t, time.Monday, "06:00"), "daytime", true},
		{"base boundary end exclusive", mustTime(t, time.Monday, "22:00"), "overnight", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.at)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Show.ID)
			require.Equal(t, tt.podcast, got.Show.PodcastsEnabled)
		})
	}
}

func TestValidateCoverageGap(t *testing.T) {
	yaml := strings.Replace(validYAML, `{start: "22:00", end: "06:00", show: overnight}`,
		`{start: "23:00", end: "06:00", show: overnight}`, 1)
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	require.Contains(t, err.Error(), "first gap at 22:00")
}

func TestValidateOverlap(t *testing.T) {
	yaml := strings.Replace(validYAML, `{start: "22:00", end: "06:00", show: overnight}`,
		`{start: "21:00", end: "06:00", show: overnight}`, 1)
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	require.Contains(t, err.Error(), "first overlap at 21:00")
}

func TestValidateDegenerateEnergyRange(t *testing.T) {
	yaml := strings.Replace(validYAML, "energy_range: [0.0, 0.4]", "energy_range: [0.4, 0.4]", 1)
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid music.energy_range")
}

func TestValidateUnknownShow(t *testing.T) {
	yaml := strings.Replace(validYAML, "show: special, days: [fri]", "show: ghost, days: [fri]", 1)
	_, err := Parse([]byte(yaml))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown show")
}

func TestParseTimeHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"6:30", 390, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeHHMM(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDaysTokens(t *testing.T) {
	tests := []struct {
		tokens []string
		want   int // number of days
	}{
		{[]string{"daily"}, 7},
		{[]string{"all"}, 7},
		{[]string{"weekday"}, 5},
		{[]string{"weekend"}, 2},
		{[]string{"monday", "fri"}, 2},
		{[]string{"weekend", "fri"}, 3},
	}
	for _, tt := range tests {
		days, err := parseDays(tt.tokens)
		require.NoError(t, err)
		require.Len(t, days, tt.want)
	}
	_, err := parseDays([]string{"someday"})
	require.Error(t, err)
	_, err = parseDays(nil)
	require.Error(t, err)
}

func TestFallbackCoversFullWeek(t *testing.T) {
	s := Fallback()
	require.NoError(t, s.Validate())

	for hour := 0; hour < 24; hour++ {
		at := time.Date(2026, 8, 17, hour, 30, 0, 0, time.Local)
		got, err := s.Resolve(at)
		require.NoError(t, err)
		require.Equal(t, PeriodFor(hour), got.Show.ID)
		require.Equal(t, got.Show.ID, got.Period)
	}
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "late_night"}, {5, "late_night"},
		{6, "early_morning"}, {9, "early_morning"},
		{10, "morning"}, {13, "morning"},
		{14, "early_afternoon"},
		{15, "afternoon"}, {17, "afternoon"},
		{18, "evening"}, {20, "evening"},
		{21, "night"}, {23, "night"},
	}
	for _, tt := range tests {
		if got := PeriodFor(tt.hour); got != tt.want {
			t.Errorf("PeriodFor(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestSegmentPacing(t *testing.T) {
	min, max := SegmentSpacing("early_afternoon")
	require.Equal(t, 1, min)
	require.Equal(t, 2, max)
	min, max = SegmentSpacing("nowhere")
	require.Equal(t, 3, min)
	require.Equal(t, 5, max)
	require.InDelta(t, 0.9, SegmentProbability("early_afternoon"), 1e-9)
	require.InDelta(t, 0.4, SegmentProbability("nowhere"), 1e-9)
}
