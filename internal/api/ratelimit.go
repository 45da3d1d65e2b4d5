package api

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateTable enforces one message per cooldown per client key. Entries
// are pruned once idle for two cooldowns so the map cannot grow without
// bound under address churn.
type rateTable struct {
	cooldown time.Duration

	mu      sync.Mutex
	clients map[string]*rateEntry
	pruned  time.Time
}

type rateEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newRateTable(cooldown time.Duration) *rateTable {
	return &rateTable{
		cooldown: cooldown,
		clients:  make(map[string]*rateEntry),
		pruned:   time.Now(),
	}
}

// allow consumes the key's token. When denied it reports how many whole
// seconds remain until the next message is accepted.
func (t *rateTable) allow(key string) (waitSeconds int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybePrune()

	e, found := t.clients[key]
	if !found {
		e = &rateEntry{limiter: rate.NewLimiter(rate.Every(t.cooldown), 1)}
		t.clients[key] = e
	}
	e.seen = time.Now()

	res := e.limiter.Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return int(math.Ceil(delay.Seconds())), false
	}
	return 0, true
}

// forgive refunds the token consumed by allow, so a rejected payload
// does not burn the client's cooldown.
func (t *rateTable) forgive(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.clients[key]; ok {
		e.limiter = rate.NewLimiter(rate.Every(t.cooldown), 1)
	}
}

func (t *rateTable) maybePrune() {
	if time.Since(t.pruned) < t.cooldown {
		return
	}
	t.pruned = time.Now()
	idle := 2 * t.cooldown
	for k, e := range t.clients {
		if time.Since(e.seen) > idle {
			delete(t.clients, k)
		}
	}
}
