package supervisor

import (
	"fmt"
	"os"
	"strings"

	"github.com/wvoid/wvoid-radio/internal/config"
)

// StationComponents describes the standard WVOID deployment: Icecast,
// the streamer, the public API, and the cloudflared tunnel. Restart
// commands come from WVOID_START_* variables; a component without one
// is only monitored.
func StationComponents(cfg *config.Config) []Component {
	return []Component{
		{
			Name:     "icecast",
			URL:      cfg.StatusURL(),
			Start:    startCommand("WVOID_START_ICECAST"),
			Critical: true,
		},
		{
			Name:     "streamer",
			Process:  "wvoid-radio run",
			Start:    startCommand("WVOID_START_STREAMER"),
			Critical: true,
		},
		{
			Name:     "api",
			URL:      fmt.Sprintf("http://localhost:%d/health", cfg.APIPort),
			Start:    startCommand("WVOID_START_API"),
			Critical: true,
		},
		{
			Name:    "tunnel",
			Process: "cloudflared",
			Start:   startCommand("WVOID_START_TUNNEL"),
		},
	}
}

func startCommand(env string) []string {
	return strings.Fields(os.Getenv(env))
}
