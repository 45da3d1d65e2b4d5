package api

import (
	"net/http"
	"os/exec"
	"time"
)

// HealthChecker reports whether the station's sibling processes are
// alive. The API answering at all proves itself up; Icecast is probed
// over HTTP and the streamer and tunnel by process name.
type HealthChecker struct {
	IcecastURL  string
	StreamerPat string
	TunnelPat   string
	Client      *http.Client
	// CheckProcess is swappable for tests; defaults to pgrep.
	CheckProcess func(pattern string) bool
}

func NewHealthChecker(icecastURL string) *HealthChecker {
	return &HealthChecker{
		IcecastURL:   icecastURL,
		StreamerPat:  "wvoid-radio run",
		TunnelPat:    "cloudflared",
		Client:       &http.Client{Timeout: 2 * time.Second},
		CheckProcess: pgrep,
	}
}

// Check returns the health report served at /health.
func (h *HealthChecker) Check() map[string]any {
	icecastOK := h.checkURL(h.IcecastURL)
	streamerOK := h.CheckProcess(h.StreamerPat)
	tunnelOK := h.CheckProcess(h.TunnelPat)

	status := "healthy"
	if !icecastOK || !streamerOK || !tunnelOK {
		status = "degraded"
	}
	up := func(ok bool) map[string]string {
		if ok {
			return map[string]string{"status": "up"}
		}
		return map[string]string{"status": "down"}
	}
	return map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"icecast":  up(icecastOK),
			"streamer": up(streamerOK),
			"tunnel":   up(tunnelOK),
			"api":      up(true),
		},
	}
}

func (h *HealthChecker) checkURL(url string) bool {
	resp, err := h.Client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func pgrep(pattern string) bool {
	return exec.Command("pgrep", "-f", pattern).Run() == nil
}
