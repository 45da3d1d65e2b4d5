// Package api serves the public station endpoints: now-playing state,
// health, stats, play history, listener messages, Discogs enrichment,
// and prometheus metrics. It runs in its own process and shares nothing
// with the engine except files and the history database.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/wvoid/wvoid-radio/internal/config"
	"github.com/wvoid/wvoid-radio/internal/discogs"
	"github.com/wvoid/wvoid-radio/internal/history"
	"github.com/wvoid/wvoid-radio/internal/messages"
	"github.com/wvoid/wvoid-radio/internal/metrics"
	"github.com/wvoid/wvoid-radio/internal/publisher"
)

// HistoryReader is the slice of the play log the API exposes.
type HistoryReader interface {
	Recent(limit int) []history.Play
	MostPlayed(limit int) []history.TrackCount
	Summary() history.Stats
}

// Server holds the API state. Stats counters are process-local and
// derived from observed now-playing changes, mirroring what a listener
// of the public endpoint would see.
type Server struct {
	cfg     *config.Config
	msgs    *messages.Store
	hist    HistoryReader
	discogs *discogs.Client
	health  *HealthChecker
	limits  *rateTable

	started time.Time

	mu              sync.Mutex
	tracksPlayed    int
	listenersServed int
	lastTrack       string
}

// New builds the API server. hist and discogs may be nil.
func New(cfg *config.Config, msgs *messages.Store, hist HistoryReader, dg *discogs.Client) *Server {
	return &Server{
		cfg:     cfg,
		msgs:    msgs,
		hist:    hist,
		discogs: dg,
		health:  NewHealthChecker(cfg.StatusURL()),
		limits:  newRateTable(5 * time.Minute),
		started: time.Now(),
	}
}

// Router wires all routes with CORS open to any origin; the station's
// web player is served from a different domain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsEverything)

	r.Get("/", s.handleNowPlaying)
	r.Get("/now-playing", s.handleNowPlaying)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/history", s.handleHistory)
	r.Get("/messages", s.handleMessages)
	r.Post("/message", s.handlePostMessage)
	r.Get("/discogs", s.handleDiscogs)
	r.Get("/qr", s.handleQR)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func corsEverything(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readNowPlaying loads the state file the engine publishes. A missing
// or unreadable file degrades to an offline placeholder.
func (s *Server) readNowPlaying() publisher.NowPlaying {
	for _, path := range s.cfg.NowPlayingPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var np publisher.NowPlaying
		if json.Unmarshal(data, &np) == nil {
			return np
		}
	}
	return publisher.NowPlaying{Track: "Signal lost", Type: "offline"}
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	np := s.readNowPlaying()
	s.observe(np)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	s.writeJSON(w, http.StatusOK, np)
}

// observe feeds the process-local stats from now-playing reads.
func (s *Server) observe(np publisher.NowPlaying) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if np.Track != "" && np.Track != s.lastTrack {
		s.tracksPlayed++
		s.lastTrack = np.Track
	}
	if np.Listeners > 0 {
		s.listenersServed += np.Listeners
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.started).Seconds())
	s.mu.Lock()
	played, served := s.tracksPlayed, s.listenersServed
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"uptime":                 fmt.Sprintf("%dh %dm", uptime/3600, (uptime%3600)/60),
		"uptime_seconds":         uptime,
		"tracks_played":          played,
		"total_listeners_served": served,
		"current_listeners":      s.readNowPlaying().Listeners,
		"api_started":            s.started.Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check()
	report["uptime_seconds"] = int(time.Since(s.started).Seconds())
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"enabled": false,
			"message": "History tracking not available",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     true,
		"recent":      s.hist.Recent(50),
		"stats":       s.hist.Summary(),
		"most_played": s.hist.MostPlayed(10),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.msgs.Recent(20))
}

type postMessageBody struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	key := clientKey(r)
	if wait, ok := s.limits.allow(key); !ok {
		metrics.MessagesRejected.WithLabelValues("rate_limited").Inc()
		s.writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":        "Too many messages",
			"wait_seconds": wait,
		})
		return
	}

	var body postMessageBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		s.limits.forgive(key)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			metrics.MessagesRejected.WithLabelValues("too_large").Inc()
			s.writeError(w, http.StatusRequestEntityTooLarge, "Message too large")
			return
		}
		metrics.MessagesRejected.WithLabelValues("bad_request").Inc()
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	msg, err := s.msgs.Add(body.Message, "web", body.Username, key)
	if err != nil {
		s.limits.forgive(key)
		if err == messages.ErrInvalid {
			metrics.MessagesRejected.WithLabelValues("invalid").Inc()
			s.writeError(w, http.StatusBadRequest, "Invalid message")
			return
		}
		metrics.MessagesRejected.WithLabelValues("internal").Inc()
		s.writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}
	metrics.MessagesReceived.Inc()
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": msg.ID})
}

func (s *Server) handleDiscogs(w http.ResponseWriter, r *http.Request) {
	res := s.currentDiscogs(r)
	if res == nil {
		s.writeError(w, http.StatusNotFound, "No Discogs info available")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	res := s.currentDiscogs(r)
	if res == nil {
		s.writeError(w, http.StatusNotFound, "No Discogs info available")
		return
	}
	png, err := qrcode.Encode(res.URL, qrcode.Medium, 256)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write(png)
}

// currentDiscogs looks up the release for whatever music track is on
// air right now.
func (s *Server) currentDiscogs(r *http.Request) *discogs.Result {
	if s.discogs == nil {
		return nil
	}
	np := s.readNowPlaying()
	if np.Type != "music" || np.Track == "" {
		return nil
	}
	res, err := s.discogs.Search(r.Context(), np.Track, np.Vibe)
	if err != nil {
		log.Printf("api: discogs lookup: %v", err)
		return nil
	}
	return res
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ListenAndServe runs the API until the listener fails.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.APIPort)
	log.Printf("api: listening on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}
