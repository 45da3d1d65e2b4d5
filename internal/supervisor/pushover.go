package supervisor

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const pushoverEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover delivers watchdog notifications. A nil *Pushover is a valid
// no-op sink, so alerting stays optional.
type Pushover struct {
	User     string
	Token    string
	Endpoint string
	HTTP     *http.Client
}

// NewPushover returns a notifier, or nil when either credential is
// missing.
func NewPushover(user, token string) *Pushover {
	if user == "" || token == "" {
		return nil
	}
	return &Pushover{
		User:     user,
		Token:    token,
		Endpoint: pushoverEndpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one notification. Priority 1 pushes through quiet hours
// with an audible sound; -1 is delivered silently. Failures are logged
// and swallowed, a broken notifier must never stall the watchdog.
func (p *Pushover) Send(title, message string, priority int) {
	if p == nil {
		return
	}
	form := url.Values{
		"token":    {p.Token},
		"user":     {p.User},
		"title":    {title},
		"message":  {message},
		"priority": {strconv.Itoa(priority)},
	}
	if priority >= 1 {
		form.Set("sound", "alien")
	}
	resp, err := p.HTTP.PostForm(p.Endpoint, form)
	if err != nil {
		log.Printf("supervisor: pushover: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("supervisor: pushover: status %d", resp.StatusCode)
	}
}
