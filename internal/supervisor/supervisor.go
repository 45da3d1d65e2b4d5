// Package supervisor watches the station's components and restarts the
// ones it can. It runs as its own process and talks to the rest of the
// station only through process names, URLs and start commands, so a
// wedged streamer can never take the watchdog down with it.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// Component is one supervised piece of the station. A component with a
// URL is probed over HTTP; otherwise Process is matched with pgrep.
// Start, when set, is the argv used to bring the component back.
type Component struct {
	Name     string
	URL      string
	Process  string
	Start    []string
	Critical bool
}

// Watchdog polls components on a fixed interval, restarts failed ones
// up to MaxRetries consecutive times, and escalates to a notification
// once retries are exhausted. It keeps checking after escalation so a
// manual fix is noticed and announced as a recovery.
type Watchdog struct {
	Components    []Component
	Interval      time.Duration
	MaxRetries    int
	AlertCooldown time.Duration
	StartGrace    time.Duration
	RecheckDelay  time.Duration
	Notifier      *Pushover

	// Swappable for tests.
	CheckURL     func(url string) bool
	CheckProcess func(pattern string) bool
	StartCommand func(argv []string) error

	failures  map[string]int
	lastAlert map[string]time.Time
	alerted   map[string]bool
}

// New builds a watchdog with production defaults: 30 s checks, three
// restart attempts, five minutes between repeat alerts.
func New(components []Component, notifier *Pushover) *Watchdog {
	client := &http.Client{Timeout: 5 * time.Second}
	return &Watchdog{
		Components:    components,
		Interval:      30 * time.Second,
		MaxRetries:    3,
		AlertCooldown: 5 * time.Minute,
		StartGrace:    3 * time.Second,
		RecheckDelay:  2 * time.Second,
		Notifier:      notifier,
		CheckURL: func(url string) bool {
			resp, err := client.Get(url)
			if err != nil {
				return false
			}
			resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		},
		CheckProcess: func(pattern string) bool {
			return exec.Command("pgrep", "-f", pattern).Run() == nil
		},
		StartCommand: func(argv []string) error {
			if len(argv) == 0 {
				return fmt.Errorf("empty start command")
			}
			return exec.Command(argv[0], argv[1:]...).Start()
		},
		failures:  make(map[string]int),
		lastAlert: make(map[string]time.Time),
		alerted:   make(map[string]bool),
	}
}

// Run checks every component once per interval until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) error {
	log.Printf("supervisor: watching %d component(s) every %s", len(w.Components), w.Interval)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.CheckAll()
	for {
		select {
		case <-ctx.Done():
			log.Printf("supervisor: shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.CheckAll()
		}
	}
}

// CheckAll runs a single pass over every component.
func (w *Watchdog) CheckAll() {
	for i := range w.Components {
		w.checkOne(&w.Components[i])
	}
}

func (w *Watchdog) checkOne(c *Component) {
	if w.healthy(c) {
		w.markHealthy(c)
		return
	}

	w.failures[c.Name]++
	count := w.failures[c.Name]
	log.Printf("supervisor: %s is down (failure %d/%d)", c.Name, count, w.MaxRetries)

	if count <= w.MaxRetries && len(c.Start) > 0 {
		if w.restart(c) {
			log.Printf("supervisor: %s restarted", c.Name)
			w.failures[c.Name] = 0
			return
		}
		log.Printf("supervisor: restart of %s did not take", c.Name)
	}

	if count > w.MaxRetries && c.Critical {
		w.alert(c, count)
	}
}

func (w *Watchdog) healthy(c *Component) bool {
	if c.URL != "" {
		return w.CheckURL(c.URL)
	}
	return w.CheckProcess(c.Process)
}

// markHealthy resets the failure count and, if the component had been
// escalated, announces the recovery.
func (w *Watchdog) markHealthy(c *Component) {
	if w.failures[c.Name] > 0 {
		log.Printf("supervisor: %s recovered", c.Name)
	}
	w.failures[c.Name] = 0
	if w.alerted[c.Name] {
		w.alerted[c.Name] = false
		w.Notifier.Send(
			fmt.Sprintf("%s recovered", c.Name),
			fmt.Sprintf("%s is back up.", c.Name),
			-1,
		)
	}
}

// restart launches the component's start command, waits for it to come
// up, and re-checks once more before giving up on the attempt.
func (w *Watchdog) restart(c *Component) bool {
	log.Printf("supervisor: restarting %s: %s", c.Name, strings.Join(c.Start, " "))
	if err := w.StartCommand(c.Start); err != nil {
		log.Printf("supervisor: start %s: %v", c.Name, err)
		return false
	}
	time.Sleep(w.StartGrace)
	if w.healthy(c) {
		return true
	}
	time.Sleep(w.RecheckDelay)
	return w.healthy(c)
}

// alert sends a high-priority notification, at most once per cooldown
// per component.
func (w *Watchdog) alert(c *Component, failures int) {
	if time.Since(w.lastAlert[c.Name]) < w.AlertCooldown {
		return
	}
	w.lastAlert[c.Name] = time.Now()
	w.alerted[c.Name] = true
	log.Printf("supervisor: alerting on %s after %d failures", c.Name, failures)
	w.Notifier.Send(
		fmt.Sprintf("%s is down", c.Name),
		fmt.Sprintf("%s has failed %d consecutive checks and automatic restarts are exhausted.", c.Name, failures),
		1,
	)
}
