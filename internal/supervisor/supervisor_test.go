package supervisor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type notification struct {
	title    string
	priority int
}

// newTestWatchdog returns a watchdog with all timing collapsed and the
// notifier pointed at a recording server.
func newTestWatchdog(t *testing.T, components []Component) (*Watchdog, *[]notification) {
	t.Helper()
	var sent []notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		n := notification{title: r.Form.Get("title")}
		switch r.Form.Get("priority") {
		case "1":
			n.priority = 1
			require.Equal(t, "alien", r.Form.Get("sound"))
		case "-1":
			n.priority = -1
		}
		sent = append(sent, n)
	}))
	t.Cleanup(srv.Close)

	notifier := NewPushover("user", "token")
	notifier.Endpoint = srv.URL

	w := New(components, notifier)
	w.StartGrace = 0
	w.RecheckDelay = 0
	return w, &sent
}

func TestRestartRecoversComponent(t *testing.T) {
	down := true
	starts := 0
	w, sent := newTestWatchdog(t, []Component{
		{Name: "streamer", Process: "streamer", Start: []string{"start-streamer"}, Critical: true},
	})
	w.CheckProcess = func(string) bool { return !down }
	w.StartCommand = func(argv []string) error {
		require.Equal(t, []string{"start-streamer"}, argv)
		starts++
		down = false
		return nil
	}

	w.CheckAll()
	require.Equal(t, 1, starts)
	require.Equal(t, 0, w.failures["streamer"], "successful restart resets the count")
	require.Empty(t, *sent)
}

func TestAlertAfterExhaustedRetries(t *testing.T) {
	w, sent := newTestWatchdog(t, []Component{
		{Name: "icecast", URL: "http://localhost:1/status-json.xsl", Start: []string{"start-icecast"}, Critical: true},
	})
	w.CheckURL = func(string) bool { return false }
	starts := 0
	w.StartCommand = func([]string) error { starts++; return nil }

	for i := 0; i < 5; i++ {
		w.CheckAll()
	}
	require.Equal(t, 3, starts, "restart attempts stop at MaxRetries")
	require.Len(t, *sent, 1, "alert cooldown suppresses repeats")
	require.Equal(t, "icecast is down", (*sent)[0].title)
	require.Equal(t, 1, (*sent)[0].priority)
}

func TestAlertCooldownExpires(t *testing.T) {
	w, sent := newTestWatchdog(t, []Component{
		{Name: "icecast", URL: "http://localhost:1/x", Critical: true},
	})
	w.CheckURL = func(string) bool { return false }

	for i := 0; i < 5; i++ {
		w.CheckAll()
	}
	require.Len(t, *sent, 1)

	w.lastAlert["icecast"] = time.Now().Add(-w.AlertCooldown - time.Second)
	w.CheckAll()
	require.Len(t, *sent, 2)
}

func TestRecoveryNotificationOnlyAfterAlert(t *testing.T) {
	down := true
	w, sent := newTestWatchdog(t, []Component{
		{Name: "streamer", Process: "streamer", Critical: true},
	})
	w.CheckProcess = func(string) bool { return !down }

	// One failure, then recovery before escalation: no notification.
	w.CheckAll()
	down = false
	w.CheckAll()
	require.Empty(t, *sent)

	// Fail past the retry budget, then recover: alert plus recovery.
	down = true
	for i := 0; i < 4; i++ {
		w.CheckAll()
	}
	down = false
	w.CheckAll()
	require.Len(t, *sent, 2)
	require.Equal(t, "streamer recovered", (*sent)[1].title)
	require.Equal(t, -1, (*sent)[1].priority)
}

func TestNonCriticalNeverAlerts(t *testing.T) {
	w, sent := newTestWatchdog(t, []Component{
		{Name: "tunnel", Process: "cloudflared"},
	})
	w.CheckProcess = func(string) bool { return false }

	for i := 0; i < 10; i++ {
		w.CheckAll()
	}
	require.Empty(t, *sent)
}

func TestNilNotifierIsSilent(t *testing.T) {
	require.Nil(t, NewPushover("", "token"))
	require.Nil(t, NewPushover("user", ""))

	var p *Pushover
	p.Send("title", "message", 1)

	w := New([]Component{{Name: "x", Process: "x", Critical: true}}, nil)
	w.CheckProcess = func(string) bool { return false }
	for i := 0; i < 5; i++ {
		w.CheckAll()
	}
}

func TestURLCheckAgainstServer(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ok.Close()

	w := New([]Component{{Name: "icecast", URL: ok.URL}}, nil)
	require.True(t, w.healthy(&w.Components[0]))

	w.Components[0].URL = "http://localhost:1/nope"
	require.False(t, w.healthy(&w.Components[0]))
}
