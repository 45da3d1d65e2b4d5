// Package history records every track play in sqlite so the curator can
// avoid repeats and the operator can pull analytics.
package history

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Play is one recorded spin.
type Play struct {
	Filepath   string    `json:"filepath"`
	TrackName  string    `json:"track_name"`
	Artist     string    `json:"artist"`
	Vibe       string    `json:"vibe"`
	TimePeriod string    `json:"time_period"`
	Listeners  int       `json:"listeners"`
	PlayedAt   time.Time `json:"played_at"`
}

// TrackCount aggregates plays per file for the most-played report.
type TrackCount struct {
	Filepath       string    `json:"filepath"`
	TrackName      string    `json:"track_name"`
	PlayCount      int       `json:"play_count"`
	TotalListeners int       `json:"total_listeners"`
	LastPlayed     time.Time `json:"last_played"`
}

// Stats is the overall station summary.
type Stats struct {
	TotalPlays     int            `json:"total_plays"`
	UniqueTracks   int            `json:"unique_tracks"`
	TotalListeners int            `json:"total_listeners"`
	ByTimePeriod   map[string]int `json:"by_time_period"`
	ByVibe         map[string]int `json:"by_vibe"`
	FirstPlay      time.Time      `json:"first_play,omitempty"`
	LastPlay       time.Time      `json:"last_play,omitempty"`
}

// Store is the sqlite-backed play log. Safe for concurrent use; writes
// go through database/sql's connection pool.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the history database, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filepath TEXT NOT NULL,
			track_name TEXT,
			artist TEXT,
			vibe TEXT,
			time_period TEXT,
			listeners INTEGER DEFAULT 0,
			played_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_filepath ON plays(filepath);
		CREATE INDEX IF NOT EXISTS idx_played_at ON plays(played_at);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record logs a play. Failures are logged and swallowed so a corrupt or
// locked history file never interrupts playback.
func (s *Store) Record(p Play) {
	if p.PlayedAt.IsZero() {
		p.PlayedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO plays (filepath, track_name, artist, vibe, time_period, listeners, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Filepath, p.TrackName, p.Artist, p.Vibe, p.TimePeriod, p.Listeners,
		p.PlayedAt.UTC().Format(timeLayout))
	if err != nil {
		log.Printf("history: record %s: %v", p.Filepath, err)
	}
}

// WasPlayedRecently reports whether the file played within the window.
// Errors read as "not played" so the curator stays permissive.
func (s *Store) WasPlayedRecently(path string, window time.Duration) bool {
	cutoff := time.Now().Add(-window).UTC().Format(timeLayout)
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM plays WHERE filepath = ? AND played_at > ?`,
		path, cutoff).Scan(&n)
	if err != nil {
		return false
	}
	return n > 0
}

// FilterRecent removes paths that played within the window. A single
// query beats per-path lookups once the library gets large.
func (s *Store) FilterRecent(paths []string, window time.Duration) []string {
	if len(paths) == 0 {
		return nil
	}
	cutoff := time.Now().Add(-window).UTC().Format(timeLayout)
	rows, err := s.db.Query(`
		SELECT DISTINCT filepath FROM plays WHERE played_at > ?`, cutoff)
	if err != nil {
		out := make([]string, len(paths))
		copy(out, paths)
		return out
	}
	defer rows.Close()
	recent := make(map[string]bool)
	for rows.Next() {
		var p string
		if rows.Scan(&p) == nil {
			recent[p] = true
		}
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !recent[p] {
			out = append(out, p)
		}
	}
	return out
}

// Recent returns the latest plays, newest first.
func (s *Store) Recent(limit int) []Play {
	rows, err := s.db.Query(`
		SELECT filepath, track_name, artist, vibe, time_period, listeners, played_at
		FROM plays ORDER BY played_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []Play
	for rows.Next() {
		var p Play
		var name, artist, vibe, period sql.NullString
		var playedAt string
		if err := rows.Scan(&p.Filepath, &name, &artist, &vibe, &period, &p.Listeners, &playedAt); err != nil {
			continue
		}
		p.TrackName, p.Artist, p.Vibe, p.TimePeriod = name.String, artist.String, vibe.String, period.String
		p.PlayedAt = parseTime(playedAt)
		out = append(out, p)
	}
	return out
}

// PlayCount returns how many times the file has ever played.
func (s *Store) PlayCount(path string) int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM plays WHERE filepath = ?`, path).Scan(&n); err != nil {
		return 0
	}
	return n
}

// MostPlayed returns the heaviest-rotation tracks.
func (s *Store) MostPlayed(limit int) []TrackCount {
	rows, err := s.db.Query(`
		SELECT filepath, track_name, COUNT(*) AS play_count,
		       COALESCE(SUM(listeners), 0) AS total_listeners,
		       MAX(played_at) AS last_played
		FROM plays GROUP BY filepath ORDER BY play_count DESC LIMIT ?`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []TrackCount
	for rows.Next() {
		var tc TrackCount
		var name sql.NullString
		var last string
		if err := rows.Scan(&tc.Filepath, &name, &tc.PlayCount, &tc.TotalListeners, &last); err != nil {
			continue
		}
		tc.TrackName = name.String
		tc.LastPlayed = parseTime(last)
		out = append(out, tc)
	}
	return out
}

// Summary computes the overall stats. Errors leave fields zeroed.
func (s *Store) Summary() Stats {
	st := Stats{ByTimePeriod: map[string]int{}, ByVibe: map[string]int{}}
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM plays`).Scan(&st.TotalPlays)
	_ = s.db.QueryRow(`SELECT COUNT(DISTINCT filepath) FROM plays`).Scan(&st.UniqueTracks)
	_ = s.db.QueryRow(`SELECT COALESCE(SUM(listeners), 0) FROM plays`).Scan(&st.TotalListeners)

	if rows, err := s.db.Query(`SELECT COALESCE(time_period, ''), COUNT(*) FROM plays GROUP BY time_period`); err == nil {
		for rows.Next() {
			var k string
			var n int
			if rows.Scan(&k, &n) == nil {
				st.ByTimePeriod[k] = n
			}
		}
		rows.Close()
	}
	if rows, err := s.db.Query(`SELECT vibe, COUNT(*) FROM plays WHERE vibe IS NOT NULL GROUP BY vibe ORDER BY COUNT(*) DESC`); err == nil {
		for rows.Next() {
			var k string
			var n int
			if rows.Scan(&k, &n) == nil {
				st.ByVibe[k] = n
			}
		}
		rows.Close()
	}
	var first, last sql.NullString
	_ = s.db.QueryRow(`SELECT MIN(played_at), MAX(played_at) FROM plays`).Scan(&first, &last)
	if first.Valid {
		st.FirstPlay = parseTime(first.String)
	}
	if last.Valid {
		st.LastPlay = parseTime(last.String)
	}
	return st
}

const timeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
