// Package command implements the operator control channel: a single
// file that external tools write one word into and the engine drains
// between audio chunks.
package command

import (
	"os"
	"strings"
)

// Command is a drained control word.
type Command string

const (
	None    Command = ""
	Skip    Command = "skip"
	Segment Command = "segment"
	Podcast Command = "podcast"
)

// Mailbox is the edge-triggered file channel. Reading a command
// removes the file, so each write is observed at most once.
type Mailbox struct {
	Path string
}

func New(path string) *Mailbox { return &Mailbox{Path: path} }

// Poll drains the pending command, if any. The file is renamed aside
// before reading, so a command posted concurrently lands in a fresh
// file and is picked up on the next poll rather than lost. Unknown
// words are consumed and dropped; I/O errors read as no command (a
// missing file is the common case).
func (m *Mailbox) Poll() Command {
	taken := m.Path + ".taken"
	if err := os.Rename(m.Path, taken); err != nil {
		return None
	}
	data, err := os.ReadFile(taken)
	os.Remove(taken)
	if err != nil {
		return None
	}
	word := strings.ToLower(strings.TrimSpace(string(data)))
	switch Command(word) {
	case Skip, Segment, Podcast:
		return Command(word)
	}
	return None
}

// Post writes a command for the engine to pick up, overwriting any
// pending one.
func (m *Mailbox) Post(c Command) error {
	return os.WriteFile(m.Path, []byte(string(c)+"\n"), 0o644)
}
