package library

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Classify maps a track path to its mood by substring match against the
// signature table. The longest matching keyword wins (more specific
// beats more generic, so "electronic_chill" artists are not swallowed
// by "electronic"). Tracks matching nothing get a neutral mood.
func Classify(path string) Mood {
	lower := strings.ToLower(path)
	var best Mood
	bestLen := 0
	for _, sig := range moodSignatures {
		if len(sig.keyword) > bestLen && strings.Contains(lower, sig.keyword) {
			best = sig.mood
			bestLen = len(sig.keyword)
		}
	}
	if bestLen == 0 {
		return Mood{Energy: 0.5, Warmth: 0.5, Vibe: VibeUnknown}
	}
	return best
}

// SegmentTypes in priority order for filename matching. The order
// matters: "listener_dedication" must match before "dedication".
var SegmentTypes = []string{
	"listener_dedication", "station_id", "hour_marker", "long_talk",
	"monologue", "late_night", "music_history", "dedication",
	"weather", "news", "poetry",
}

// LongSegmentTypes and ShortSegmentTypes bucket segments by typical
// runtime for the probabilistic interleave policy.
var (
	LongSegmentTypes  = map[string]bool{"long_talk": true, "monologue": true, "late_night": true, "music_history": true, "news": true}
	ShortSegmentTypes = map[string]bool{"station_id": true, "hour_marker": true, "dedication": true}
)

// SegmentType extracts the segment type from a filename. Files matching
// no known type report "other".
func SegmentType(path string) string {
	name := strings.ToLower(filepath.Base(path))
	for _, st := range SegmentTypes {
		if strings.Contains(name, st) {
			return st
		}
	}
	return "other"
}

// IsSingleUse reports whether a segment is consumed by playback.
// Listener dedications are rendered per request and removed after they
// air once.
func IsSingleUse(path string) bool {
	return SegmentType(path) == "listener_dedication"
}

// segmentDisplayNames give on-air titles to generated segment files.
var segmentDisplayNames = []struct{ key, friendly string }{
	{"station_id", "WVOID-FM"},
	{"hour_marker", "The Liminal Hour"},
	{"long_talk", "The Operator Speaks"},
	{"music_history", "Sonic Archaeology"},
	{"late_night", "Late Night Transmission"},
	{"monologue", "Midnight Musings"},
	{"dedication", "For the Night Owls"},
	{"weather", "Conditions Unknown"},
	{"news", "Signals from Elsewhere"},
	{"poetry", "Verse from the Void"},
}

var cleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(Official.*?\)`),
	regexp.MustCompile(`(?i)\s*\[Official.*?\]`),
	regexp.MustCompile(`(?i)\s*\(Full Album.*?\)`),
	regexp.MustCompile(`(?i)\s*\[Full Album.*?\]`),
	regexp.MustCompile(`(?i)\s*\(HD\)`),
	regexp.MustCompile(`(?i)\s*\[HD\]`),
	regexp.MustCompile(`(?i)\s*\(Audio\)`),
	regexp.MustCompile(`(?i)\s*\[Audio\]`),
	regexp.MustCompile(`(?i)\s*\(Lyrics\)`),
	regexp.MustCompile(`(?i)\s*\[Lyrics\]`),
	regexp.MustCompile(`(?i)\s*\(Visualizer\)`),
	regexp.MustCompile(`\s*｜.*$`),
	regexp.MustCompile(`\s*⧹.*$`),
	regexp.MustCompile(`_seg\d+_\d+$`),
}

// CleanName returns the display name for an asset. Music filenames lose
// the downloader cruft; segments get their on-air titles.
func CleanName(a Asset) string {
	name := a.Name()
	if a.Kind == KindSegment {
		lower := strings.ToLower(name)
		for _, d := range segmentDisplayNames {
			if strings.Contains(lower, d.key) {
				return d.friendly
			}
		}
		return "Transmission"
	}
	for _, p := range cleanPatterns {
		name = p.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}
