// Package messages stores listener messages in a bounded JSON ring on
// disk. The API appends web submissions; other ingests (chat bridges)
// share the same file, so loads always re-read before appending.
package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// MaxLen is the longest accepted message, in characters.
const MaxLen = 280

// keep is the ring capacity on disk.
const keep = 100

// Message is one stored listener message. ClientKey identifies the
// submitter (an IP for web posts) and is never exposed in API reads.
type Message struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Username  string `json:"username,omitempty"`
	ClientKey string `json:"client_key,omitempty"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// Public is the redacted view served to listeners.
type Public struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
}

// ErrInvalid marks rejected submissions (empty or over-length).
var ErrInvalid = fmt.Errorf("invalid message")

// Store appends to and reads from the shared messages file.
type Store struct {
	Path string
	mu   sync.Mutex
}

func NewStore(path string) *Store { return &Store{Path: path} }

// Add validates, stamps, and persists a message, trimming the ring to
// its capacity.
func (s *Store) Add(text, source, username, clientKey string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxLen {
		return Message{}, ErrInvalid
	}
	msg := Message{
		ID:        uuid.NewString(),
		Message:   text,
		Source:    source,
		Username:  username,
		ClientKey: clientKey,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	all = append(all, msg)
	if len(all) > keep {
		all = all[len(all)-keep:]
	}
	if err := s.save(all); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Recent returns up to limit messages, newest first, redacted.
func (s *Store) Recent(limit int) []Public {
	s.mu.Lock()
	all := s.load()
	s.mu.Unlock()

	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Public, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, Public{
			Message:   all[i].Message,
			Timestamp: all[i].Timestamp,
			Read:      all[i].Read,
		})
	}
	return out
}

// load tolerates a missing or corrupt file; messages are best-effort.
func (s *Store) load() []Message {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil
	}
	var all []Message
	if err := json.Unmarshal(data, &all); err != nil {
		return nil
	}
	return all
}

func (s *Store) save(all []Message) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(s.Path, data, 0o644)
}
