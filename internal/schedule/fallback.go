package schedule

// Built-in clock used when no schedule file exists: seven time-of-day
// programs covering the full day. IDs double as the Period labels.

type fallbackShow struct {
	id          string
	start, end  int // minutes
	name        string
	description string
	energyLo    float64
	energyHi    float64
	warmth      float64
	vibes       []string
	cadence     int
}

var fallbackShows = []fallbackShow{
	{
		id: "late_night", start: 0, end: 360,
		name:        "The Liminal Hours",
		description: "The liminal hours. Slow, contemplative, intimate.",
		energyLo:    0.0, energyHi: 0.4, warmth: 0.7,
		vibes:   []string{"ambient", "jazz", "downtempo", "classical", "soul_slow", "dub"},
		cadence: 2,
	},
	{
		id: "early_morning", start: 360, end: 600,
		name:        "First Light",
		description: "Waking gently. Warm coffee sounds.",
		energyLo:    0.2, energyHi: 0.5, warmth: 0.6,
		vibes:   []string{"jazz", "classical", "bossa", "ambient", "soul_slow"},
		cadence: 3,
	},
	{
		id: "morning", start: 600, end: 840,
		name:        "Morning Momentum",
		description: "Building momentum. Grooving into the day.",
		energyLo:    0.4, energyHi: 0.7, warmth: 0.5,
		vibes:   []string{"soul", "funk", "indie", "world", "jazz", "hiphop_chill"},
		cadence: 3,
	},
	{
		id: "early_afternoon", start: 840, end: 900,
		name:        "The Talk Hour",
		description: "The talk hour. More segments, slower pace.",
		energyLo:    0.4, energyHi: 0.6, warmth: 0.5,
		vibes:   []string{"jazz", "soul", "indie", "world", "downtempo"},
		cadence: 1,
	},
	{
		id: "afternoon", start: 900, end: 1080,
		name:        "Peak Hours",
		description: "Peak hours. Full energy, dancing allowed.",
		energyLo:    0.5, energyHi: 0.8, warmth: 0.4,
		vibes:   []string{"funk", "disco", "hiphop", "indie", "electronic", "world", "rock"},
		cadence: 3,
	},
	{
		id: "evening", start: 1080, end: 1260,
		name:        "Sunset Frequencies",
		description: "Sunset vibes. Transitioning down with style.",
		energyLo:    0.4, energyHi: 0.7, warmth: 0.6,
		vibes:   []string{"soul", "disco", "funk", "rnb", "indie", "world"},
		cadence: 2,
	},
	{
		id: "night", start: 1260, end: 0,
		name:        "Nightfall",
		description: "Night falling. Getting contemplative.",
		energyLo:    0.2, energyHi: 0.5, warmth: 0.7,
		vibes:   []string{"downtempo", "jazz", "soul_slow", "electronic_chill", "dub", "ambient"},
		cadence: 3,
	},
}

// Fallback returns the built-in clock. Podcasts run every three hours.
func Fallback() *Schedule {
	shows := make(map[string]Show, len(fallbackShows))
	base := make([]Block, 0, len(fallbackShows))
	for _, fs := range fallbackShows {
		shows[fs.id] = Show{
			ID:                 fs.id,
			Name:               fs.name,
			Description:        fs.description,
			SegmentAfterTracks: fs.cadence,
			PodcastsEnabled:    true,
			Music: MusicProfile{
				Name:         fs.name,
				Description:  fs.description,
				EnergyLow:    fs.energyLo,
				EnergyHigh:   fs.energyHi,
				PreferWarmth: fs.warmth,
				Vibes:        fs.vibes,
			},
		}
		base = append(base, Block{StartMinute: fs.start, EndMinute: fs.end, ShowID: fs.id})
	}
	return &Schedule{
		Shows:        shows,
		Base:         base,
		PodcastHours: map[int]bool{0: true, 3: true, 6: true, 9: true, 12: true, 15: true, 18: true, 21: true},
	}
}

// PeriodFor maps an hour of day to its coarse period label.
func PeriodFor(hour int) string {
	switch {
	case hour < 6:
		return "late_night"
	case hour < 10:
		return "early_morning"
	case hour < 14:
		return "morning"
	case hour < 15:
		return "early_afternoon"
	case hour < 18:
		return "afternoon"
	case hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// segmentProbability is the chance of a talk break once minimum spacing
// has passed, per period. Higher at night and during the talk hour.
var segmentProbability = map[string]float64{
	"late_night":      0.8,
	"night":           0.7,
	"evening":         0.6,
	"afternoon":       0.6,
	"early_afternoon": 0.9,
	"morning":         0.55,
	"early_morning":   0.6,
}

// SegmentProbability returns the per-period talk probability for the
// probabilistic interleave policy.
func SegmentProbability(period string) float64 {
	if p, ok := segmentProbability[period]; ok {
		return p
	}
	return 0.4
}

var segmentSpacing = map[string][2]int{
	"early_afternoon": {1, 2},
	"late_night":      {2, 4},
	"evening":         {2, 4},
	"morning":         {3, 4},
}

// SegmentSpacing returns the min and max music tracks between talk
// breaks for the probabilistic interleave policy.
func SegmentSpacing(period string) (min, max int) {
	if s, ok := segmentSpacing[period]; ok {
		return s[0], s[1]
	}
	return 3, 5
}
