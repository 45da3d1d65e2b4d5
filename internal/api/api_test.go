package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wvoid/wvoid-radio/internal/config"
	"github.com/wvoid/wvoid-radio/internal/history"
	"github.com/wvoid/wvoid-radio/internal/messages"
	"github.com/wvoid/wvoid-radio/internal/publisher"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	npPath := filepath.Join(dir, "now_playing.json")
	cfg := &config.Config{
		NowPlayingPaths: []string{npPath},
		IcecastHost:     "localhost",
		IcecastPort:     8000,
	}
	s := New(cfg, messages.NewStore(filepath.Join(dir, "messages.json")), nil, nil)
	// No real pgrep or icecast in tests.
	s.health.CheckProcess = func(string) bool { return true }
	return s, npPath
}

func writeNowPlaying(t *testing.T, path string, np publisher.NowPlaying) {
	t.Helper()
	data, err := json.Marshal(np)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	var out map[string]any
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "json") {
		json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestNowPlayingEndpoint(t *testing.T) {
	s, npPath := newTestServer(t)
	writeNowPlaying(t, npPath, publisher.NowPlaying{
		Track: "Khruangbin - Maria También", Type: "music", Vibe: "indie", Listeners: 3,
	})
	router := s.Router()

	for _, target := range []string{"/", "/now-playing"} {
		w, body := doJSON(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "Khruangbin - Maria También", body["track"])
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, w.Header().Get("Cache-Control"), "no-cache")
	}
}

func TestNowPlayingMissingFile(t *testing.T) {
	s, _ := newTestServer(t)
	w, body := doJSON(t, s.Router(), http.MethodGet, "/now-playing", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "offline", body["type"])
}

func TestStatsDerivedFromObservedChanges(t *testing.T) {
	s, npPath := newTestServer(t)
	router := s.Router()

	writeNowPlaying(t, npPath, publisher.NowPlaying{Track: "A", Type: "music", Listeners: 2})
	doJSON(t, router, http.MethodGet, "/now-playing", "")
	doJSON(t, router, http.MethodGet, "/now-playing", "")
	writeNowPlaying(t, npPath, publisher.NowPlaying{Track: "B", Type: "music", Listeners: 1})
	doJSON(t, router, http.MethodGet, "/now-playing", "")

	w, body := doJSON(t, router, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), body["tracks_played"], "same track twice counts once")
	require.Equal(t, float64(5), body["total_listeners_served"])
	require.Contains(t, body["uptime"], "h ")
}

func TestHealthEndpoint(t *testing.T) {
	icecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer icecast.Close()

	s, _ := newTestServer(t)
	s.health.IcecastURL = icecast.URL
	w, body := doJSON(t, s.Router(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", body["status"])
	components := body["components"].(map[string]any)
	require.Equal(t, "up", components["api"].(map[string]any)["status"])

	s.health.CheckProcess = func(string) bool { return false }
	_, body = doJSON(t, s.Router(), http.MethodGet, "/health", "")
	require.Equal(t, "degraded", body["status"])
}

func TestPostMessageAndRateLimit(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	w, body := doJSON(t, router, http.MethodPost, "/message", `{"message": "hello from the void"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["id"])

	// Same client inside cooldown.
	w, body = doJSON(t, router, http.MethodPost, "/message", `{"message": "again"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Greater(t, body["wait_seconds"], float64(0))

	got, _ := doJSON(t, router, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, got.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "hello from the void", list[0]["message"])
	_, hasKey := list[0]["client_key"]
	require.False(t, hasKey, "client identity never exposed")
}

func TestPostMessageValidation(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	w, _ := doJSON(t, router, http.MethodPost, "/message", `not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	big := `{"message": "` + strings.Repeat("x", 5000) + `"}`
	w, _ = doJSON(t, router, http.MethodPost, "/message", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// A rejected payload does not burn the cooldown.
	w, _ = doJSON(t, router, http.MethodPost, "/message", `{"message": ""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = doJSON(t, router, http.MethodPost, "/message", `{"message": "valid now"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHistoryEndpointDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	w, body := doJSON(t, s.Router(), http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["enabled"])
}

type stubHistory struct{}

func (stubHistory) Recent(int) []history.Play {
	return []history.Play{{Filepath: "/m/a.mp3", TrackName: "A", PlayedAt: time.Now()}}
}
func (stubHistory) MostPlayed(int) []history.TrackCount {
	return []history.TrackCount{{Filepath: "/m/a.mp3", PlayCount: 3}}
}
func (stubHistory) Summary() history.Stats {
	return history.Stats{TotalPlays: 3, UniqueTracks: 1}
}

func TestHistoryEndpointEnabled(t *testing.T) {
	s, _ := newTestServer(t)
	s.hist = stubHistory{}
	w, body := doJSON(t, s.Router(), http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["enabled"])
	require.NotNil(t, body["recent"])
	require.NotNil(t, body["stats"])
}

func TestDiscogsAndQRWithoutClient(t *testing.T) {
	s, npPath := newTestServer(t)
	writeNowPlaying(t, npPath, publisher.NowPlaying{Track: "A", Type: "music"})
	router := s.Router()

	w, _ := doJSON(t, router, http.MethodGet, "/discogs", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	w, _ = doJSON(t, router, http.MethodGet, "/qr", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOptionsPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodOptions, "/message", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "wvoid_")
}
