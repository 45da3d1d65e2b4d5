// Package discogs looks up the currently playing track on Discogs so
// the API can link listeners to the release page. Heavily cached and
// rate-limited; authenticated requests only (60/min allowance, we stay
// far under it).
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	searchURL = "https://api.discogs.com/database/search"
	userAgent = "WVOID-FM/1.0"
	cacheTTL  = time.Hour
)

// Result is one matched release.
type Result struct {
	ReleaseID int    `json:"release_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Year      int    `json:"year,omitempty"`
	URL       string `json:"url"`
	ThumbURL  string `json:"thumb_url,omitempty"`
	Label     string `json:"label,omitempty"`
	Format    string `json:"format,omitempty"`
}

type cacheEntry struct {
	result *Result // nil means a cached miss
	at     time.Time
}

// Client searches Discogs. A nil client (no token configured) is valid
// and always returns no result.
type Client struct {
	Token   string
	HTTP    *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New returns a client, or nil when no token is configured.
func New(token string) *Client {
	if token == "" {
		return nil
	}
	return &Client{
		Token: token,
		HTTP:  &http.Client{Timeout: 10 * time.Second},
		// One request per 2.5 s keeps us well inside the API allowance.
		limiter: rate.NewLimiter(rate.Every(2500*time.Millisecond), 1),
		cache:   make(map[string]cacheEntry),
	}
}

// Search finds the best release match for a track name. Both hits and
// misses are cached; a miss returns (nil, nil).
func (c *Client) Search(ctx context.Context, trackName, vibe string) (*Result, error) {
	if c == nil {
		return nil, nil
	}
	key := strings.ToLower(trackName)

	c.mu.Lock()
	if e, ok := c.cache[key]; ok && time.Since(e.at) < cacheTTL {
		c.mu.Unlock()
		return e.result, nil
	}
	c.mu.Unlock()

	res, err := c.fetch(ctx, trackName, vibe)
	if err != nil {
		// Cache the miss so a flaky upstream is not hammered.
		c.store(key, nil)
		return nil, err
	}
	c.store(key, res)
	return res, nil
}

func (c *Client) store(key string, res *Result) {
	c.mu.Lock()
	c.cache[key] = cacheEntry{result: res, at: time.Now()}
	c.mu.Unlock()
}

// genreHints maps the station's vibes onto Discogs genre filters.
var genreHints = map[string]string{
	"jazz":         "jazz",
	"soul":         "soul",
	"funk":         "funk",
	"disco":        "disco",
	"ambient":      "electronic",
	"electronic":   "electronic",
	"dub":          "reggae",
	"classical":    "classical",
	"hiphop":       "hip hop",
	"hiphop_chill": "hip hop",
	"world":        "world",
	"bossa":        "bossa nova",
	"downtempo":    "electronic",
}

type searchResponse struct {
	Results []struct {
		ID     int      `json:"id"`
		Title  string   `json:"title"`
		Year   string   `json:"year"`
		URI    string   `json:"uri"`
		Thumb  string   `json:"thumb"`
		Label  []string `json:"label"`
		Format []string `json:"format"`
	} `json:"results"`
}

func (c *Client) fetch(ctx context.Context, trackName, vibe string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	artist, title := ParseTrackName(trackName)
	query := title
	if artist != "" {
		query = artist + " " + title
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "release")
	params.Set("per_page", "5")
	if genre := genreHints[vibe]; genre != "" {
		params.Set("genre", genre)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Discogs token="+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discogs search: status %d", resp.StatusCode)
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	if len(sr.Results) == 0 {
		return nil, nil
	}

	first := sr.Results[0]
	res := &Result{
		ReleaseID: first.ID,
		Title:     first.Title,
		URL:       "https://www.discogs.com" + first.URI,
		ThumbURL:  first.Thumb,
	}
	// Discogs titles come as "Artist - Title".
	if a, t, ok := strings.Cut(first.Title, " - "); ok {
		res.Artist, res.Title = strings.TrimSpace(a), strings.TrimSpace(t)
	}
	fmt.Sscanf(first.Year, "%d", &res.Year)
	if len(first.Label) > 0 {
		res.Label = first.Label[0]
	}
	if len(first.Format) > 0 {
		res.Format = first.Format[0]
	}
	return res, nil
}

var trackNumRe = regexp.MustCompile(`^\d+[\s\-.]+`)
var titleArtistRe = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)

// ParseTrackName extracts (artist, title) from the display-name
// conventions the library uses: "Artist - Title", "01 - Title",
// "Title (Artist)", or a bare title.
func ParseTrackName(name string) (artist, title string) {
	name = trackNumRe.ReplaceAllString(strings.TrimSpace(name), "")
	if a, t, ok := strings.Cut(name, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	if m := titleArtistRe.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}
	return "", name
}
