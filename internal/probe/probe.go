// Package probe inspects audio files with ffprobe and embedded tags.
package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// DefaultTimeout bounds a single ffprobe invocation.
const DefaultTimeout = 10 * time.Second

// Prober runs ffprobe and caches durations per path. Durations never
// change for a given file in practice, and the director probes the same
// queue entries repeatedly.
type Prober struct {
	Timeout time.Duration

	cache map[string]float64
}

func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Timeout: timeout, cache: make(map[string]float64)}
}

// Duration returns the track length in seconds, or an error when
// ffprobe fails or emits garbage. Callers treat an error as "unknown
// duration" and play the file in full.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if d, ok := p.cache[path]; ok {
		return d, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	s := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("ffprobe %s: bad duration %q", path, s)
	}
	p.cache[path] = d
	return d, nil
}

// TrackTags is what the metadata reader could recover from a file.
type TrackTags struct {
	Title  string
	Artist string
	Album  string
}

// Tags reads embedded metadata. Files with no usable tags return zero
// values and no error; the caller falls back to filename parsing.
func Tags(path string) (TrackTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return TrackTags{}, err
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		if err == tag.ErrNoTagsFound {
			return TrackTags{}, nil
		}
		return TrackTags{}, err
	}
	return TrackTags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}

// SplitArtistTitle parses "Artist - Title" filenames, the convention the
// downloader writes. Returns empty artist when there is no separator.
func SplitArtistTitle(name string) (artist, title string) {
	if a, t, ok := strings.Cut(name, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	return "", strings.TrimSpace(name)
}
