// Package publisher writes the station's observable state: the
// now-playing JSON files and the listener count pulled from Icecast.
package publisher

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

// NowPlaying is the published state. Timestamp is RFC 3339.
type NowPlaying struct {
	Track      string `json:"track"`
	Type       string `json:"type"`
	Vibe       string `json:"vibe,omitempty"`
	ShowID     string `json:"show_id,omitempty"`
	ShowName   string `json:"show_name,omitempty"`
	TimePeriod string `json:"time_period,omitempty"`
	Timestamp  string `json:"timestamp"`
	Listeners  int    `json:"listeners"`
}

// Publisher fans the state out to every configured path atomically, so
// readers (the API process, the website repo) never see a torn file.
type Publisher struct {
	Paths     []string
	Listeners *ListenerCounter

	mu      sync.Mutex
	current NowPlaying
}

func New(paths []string, listeners *ListenerCounter) *Publisher {
	return &Publisher{Paths: paths, Listeners: listeners}
}

// Publish stamps and writes the state. Per-path failures are logged and
// skipped; one unwritable mirror must not block the others.
func (p *Publisher) Publish(np NowPlaying) {
	np.Timestamp = time.Now().Format(time.RFC3339)
	if p.Listeners != nil {
		np.Listeners = p.Listeners.Count()
	}
	p.mu.Lock()
	p.current = np
	p.mu.Unlock()

	data, err := json.Marshal(np)
	if err != nil {
		log.Printf("publisher: marshal: %v", err)
		return
	}
	for _, path := range p.Paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Printf("publisher: %s: %v", path, err)
			continue
		}
		if err := renameio.WriteFile(path, data, 0o644); err != nil {
			log.Printf("publisher: %s: %v", path, err)
		}
	}
}

// Current returns the last published state.
func (p *Publisher) Current() NowPlaying {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// ListenerCounter polls the Icecast status page with a short cache so
// the chunk pump never blocks on it. Errors keep the last known value.
type ListenerCounter struct {
	StatusURL string
	TTL       time.Duration
	Client    *http.Client

	mu      sync.Mutex
	count   int
	checked time.Time
}

func NewListenerCounter(statusURL string, ttl time.Duration) *ListenerCounter {
	return &ListenerCounter{
		StatusURL: statusURL,
		TTL:       ttl,
		Client:    &http.Client{Timeout: 1500 * time.Millisecond},
	}
}

// Count returns the cached or freshly-fetched listener count.
func (lc *ListenerCounter) Count() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if time.Since(lc.checked) < lc.TTL {
		return lc.count
	}
	lc.checked = time.Now()
	if n, err := lc.fetch(); err == nil {
		lc.count = n
	}
	return lc.count
}

// icestats is the shape of status-json.xsl. "source" is an object for a
// single mount and an array when several mounts exist.
type icestats struct {
	Icestats struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

type sourceEntry struct {
	Listeners int `json:"listeners"`
}

func (lc *ListenerCounter) fetch() (int, error) {
	resp, err := lc.Client.Get(lc.StatusURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var stats icestats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, err
	}
	return parseSource(stats.Icestats.Source)
}

func parseSource(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var one sourceEntry
	if err := json.Unmarshal(raw, &one); err == nil {
		return one.Listeners, nil
	}
	var many []sourceEntry
	if err := json.Unmarshal(raw, &many); err != nil {
		return 0, err
	}
	total := 0
	for _, s := range many {
		total += s.Listeners
	}
	return total, nil
}
