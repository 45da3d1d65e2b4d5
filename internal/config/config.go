// Package config loads station settings from environment variables.
// Call LoadEnvFile(".env") before Load() to use a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SegmentPolicy selects how the director decides when to interleave a
// spoken segment between music tracks.
type SegmentPolicy string

const (
	// PolicyCadence plays a segment after every show-configured number of
	// consecutive music tracks.
	PolicyCadence SegmentPolicy = "cadence"
	// PolicyProbabilistic uses per-period probabilities with min/max
	// track spacing instead of a fixed cadence.
	PolicyProbabilistic SegmentPolicy = "probabilistic"
)

// Config holds streamer + API + supervisor settings.
type Config struct {
	// Library roots
	MusicDirs       []string // WVOID_MUSIC_DIRS (os.PathListSeparator-joined); roots containing "archive" scan recursively
	ArchiveMusicDir string   // appended to MusicDirs when it exists and WVOID_MUSIC_DIRS is unset
	SegmentsDir     string
	PodcastsDir     string

	// Streamer
	SchedulePath    string
	CommandFile     string
	NowPlayingPaths []string
	SegmentPolicy   SegmentPolicy
	QueueSize       int

	// Chopping: tracks longer than MaxTrackSeconds play as a random
	// sub-window of [ChunkMinSeconds, ChunkMaxSeconds].
	MaxTrackSeconds float64
	ChunkMinSeconds float64
	ChunkMaxSeconds float64

	// Icecast source connection
	IcecastHost      string
	IcecastPort      int
	IcecastMount     string
	IcecastUser      string
	IcecastPass      string
	IcecastStatusURL string
	StationName      string
	StationDesc      string
	StationGenre     string

	// Stores
	HistoryDBPath string
	MessagesPath  string

	// API
	APIPort      int
	DiscogsToken string

	// Probes
	ListenerCacheTTL time.Duration
	ProbeTimeout     time.Duration
}

// Load reads configuration from the environment. It never fails: every
// setting has a default. Validation of the loaded values (e.g. schedule
// coverage, credentials) happens where they are used.
func Load() *Config {
	root := getEnv("WVOID_ROOT", ".")

	c := &Config{
		ArchiveMusicDir:  os.Getenv("WVOID_ARCHIVE_MUSIC_DIR"),
		SegmentsDir:      getEnv("WVOID_SEGMENTS_DIR", filepath.Join(root, "output", "segments")),
		PodcastsDir:      getEnv("WVOID_PODCASTS_DIR", filepath.Join(root, "output", "podcasts")),
		SchedulePath:     getEnv("WVOID_SCHEDULE_PATH", filepath.Join(root, "config", "schedule.yaml")),
		CommandFile:      getEnv("WVOID_COMMAND_FILE", filepath.Join(root, "command.txt")),
		SegmentPolicy:    getEnvSegmentPolicy("WVOID_SEGMENT_POLICY", PolicyCadence),
		QueueSize:        getEnvInt("WVOID_QUEUE_SIZE", 15),
		MaxTrackSeconds:  getEnvFloat("WVOID_MAX_TRACK_SECONDS", 150),
		ChunkMinSeconds:  getEnvFloat("WVOID_CHUNK_MIN_SECONDS", 90),
		ChunkMaxSeconds:  getEnvFloat("WVOID_CHUNK_MAX_SECONDS", 150),
		IcecastHost:      getEnv("ICECAST_HOST", "localhost"),
		IcecastPort:      getEnvInt("ICECAST_PORT", 8000),
		IcecastMount:     getEnv("ICECAST_MOUNT", "/stream"),
		IcecastUser:      getEnv("ICECAST_USER", "source"),
		IcecastPass:      os.Getenv("ICECAST_PASS"),
		StationName:      getEnv("WVOID_STATION_NAME", "WVOID-FM"),
		StationDesc:      getEnv("WVOID_STATION_DESC", "The frequency between frequencies"),
		StationGenre:     getEnv("WVOID_STATION_GENRE", "Eclectic"),
		HistoryDBPath:    getEnv("WVOID_HISTORY_DB", defaultHomePath("history.db")),
		MessagesPath:     getEnv("WVOID_MESSAGES_FILE", defaultHomePath("messages.json")),
		APIPort:          getEnvInt("WVOID_NOW_PLAYING_PORT", 8001),
		DiscogsToken:     os.Getenv("DISCOGS_TOKEN"),
		ListenerCacheTTL: getEnvDuration("WVOID_LISTENER_CACHE_TTL", 15*time.Second),
		ProbeTimeout:     getEnvDuration("WVOID_PROBE_TIMEOUT", 10*time.Second),
	}

	if dirs := os.Getenv("WVOID_MUSIC_DIRS"); dirs != "" {
		c.MusicDirs = splitPathList(dirs)
	} else {
		c.MusicDirs = []string{filepath.Join(root, "output", "music")}
		if c.ArchiveMusicDir != "" {
			if fi, err := os.Stat(c.ArchiveMusicDir); err == nil && fi.IsDir() {
				c.MusicDirs = append(c.MusicDirs, c.ArchiveMusicDir)
			}
		}
	}

	if paths := os.Getenv("WVOID_NOW_PLAYING_PATHS"); paths != "" {
		c.NowPlayingPaths = splitPathList(paths)
	} else {
		c.NowPlayingPaths = []string{filepath.Join(root, "output", "now_playing.json")}
	}

	if c.QueueSize < 1 {
		c.QueueSize = 15
	}
	if c.ChunkMaxSeconds < c.ChunkMinSeconds {
		c.ChunkMaxSeconds = c.ChunkMinSeconds
	}
	return c
}

// SourceURL builds the icecast:// URL the encoder connects to.
func (c *Config) SourceURL() string {
	return fmt.Sprintf("icecast://%s:%s@%s:%d%s",
		c.IcecastUser, c.IcecastPass, c.IcecastHost, c.IcecastPort, c.IcecastMount)
}

// StatusURL returns the Icecast status-json.xsl endpoint used for listener counts.
func (c *Config) StatusURL() string {
	if c.IcecastStatusURL != "" {
		return c.IcecastStatusURL
	}
	if v := os.Getenv("ICECAST_STATUS_URL"); v != "" {
		return v
	}
	return fmt.Sprintf("http://%s:%d/status-json.xsl", c.IcecastHost, c.IcecastPort)
}

// Validate reports fatal configuration problems. The engine refuses to
// start without mount credentials; library presence is checked by the
// caller once the index has scanned.
func (c *Config) Validate() error {
	if c.IcecastPass == "" {
		return fmt.Errorf("ICECAST_PASS is required (no mount credentials)")
	}
	if c.IcecastMount == "" || !strings.HasPrefix(c.IcecastMount, "/") {
		return fmt.Errorf("ICECAST_MOUNT must start with /: %q", c.IcecastMount)
	}
	return nil
}

func defaultHomePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".wvoid", name)
	}
	return filepath.Join(home, ".wvoid", name)
}

func splitPathList(s string) []string {
	parts := strings.Split(s, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvSegmentPolicy(key string, defaultVal SegmentPolicy) SegmentPolicy {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "probabilistic", "prob":
		return PolicyProbabilistic
	case "cadence":
		return PolicyCadence
	}
	return defaultVal
}
