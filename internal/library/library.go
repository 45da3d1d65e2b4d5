// Package library enumerates the on-disk audio libraries (music,
// segments, podcasts) and classifies tracks into a mood vector used by
// the director for curation.
package library

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Kind labels what an asset is, which decides normalization, fades, and
// whether it may be chopped.
type Kind string

const (
	KindMusic   Kind = "music"
	KindSegment Kind = "segment"
	KindPodcast Kind = "podcast"
)

// Asset is one playable audio file. Path is its stable identity for the
// lifetime of a run.
type Asset struct {
	Path string
	Kind Kind
}

// Name returns the filename stem.
func (a Asset) Name() string {
	base := filepath.Base(a.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// audioExts are the extensions the scanner recognizes.
var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true,
	".m4a": true, ".opus": true, ".aac": true,
}

// Periods are the segment sub-folders keyed by time of day.
var Periods = []string{"late_night", "morning", "afternoon", "evening"}

// Index scans the configured roots lazily and caches the result until
// marked dirty (by the segment watcher or an explicit Invalidate).
type Index struct {
	MusicDirs   []string
	SegmentsDir string
	PodcastsDir string

	mu      sync.Mutex
	music   []Asset
	scanned bool
}

// NewIndex returns an index over the given roots. Nothing is scanned
// until the first query.
func NewIndex(musicDirs []string, segmentsDir, podcastsDir string) *Index {
	return &Index{
		MusicDirs:   musicDirs,
		SegmentsDir: segmentsDir,
		PodcastsDir: podcastsDir,
	}
}

// Invalidate forces a music rescan on the next query.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.scanned = false
	ix.mu.Unlock()
}

// Music returns all music assets across the configured roots. Roots whose
// path contains "archive" are scanned recursively (mounted cold archives
// nest by artist/album); the station's own output folder is flat.
func (ix *Index) Music() []Asset {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.scanned {
		out := make([]Asset, len(ix.music))
		copy(out, ix.music)
		return out
	}
	var all []Asset
	for _, dir := range ix.MusicDirs {
		recursive := strings.Contains(strings.ToLower(dir), "archive")
		files := scanAudio(dir, recursive)
		for _, f := range files {
			all = append(all, Asset{Path: f, Kind: KindMusic})
		}
		log.Printf("library: %d tracks in %s", len(files), dir)
	}
	ix.music = all
	ix.scanned = true
	out := make([]Asset, len(all))
	copy(out, all)
	return out
}

// Segments returns segments for the given period: the period sub-folder
// when it has any, otherwise the flat segments root. Always rescans,
// since the TTS pipeline and the dedication renderer drop files here at
// any time and the set is small.
func (ix *Index) Segments(period string) []Asset {
	if period != "" {
		sub := scanAudio(filepath.Join(ix.SegmentsDir, period), false)
		if len(sub) > 0 {
			return toAssets(sub, KindSegment)
		}
	}
	return toAssets(scanAudio(ix.SegmentsDir, false), KindSegment)
}

// ShowSegments returns segments recorded for a specific show, from
// segments/shows/<showID>.
func (ix *Index) ShowSegments(showID string) []Asset {
	return toAssets(scanAudio(filepath.Join(ix.SegmentsDir, "shows", showID), false), KindSegment)
}

// Podcasts returns all podcast episodes newest-first by mtime.
func (ix *Index) Podcasts() []Asset {
	files := scanAudio(ix.PodcastsDir, false)
	type stamped struct {
		path string
		mod  int64
	}
	st := make([]stamped, 0, len(files))
	for _, f := range files {
		var mod int64
		if fi, err := os.Stat(f); err == nil {
			mod = fi.ModTime().UnixNano()
		}
		st = append(st, stamped{f, mod})
	}
	sort.Slice(st, func(i, j int) bool { return st[i].mod > st[j].mod })
	out := make([]Asset, 0, len(st))
	for _, s := range st {
		out = append(out, Asset{Path: s.path, Kind: KindPodcast})
	}
	return out
}

// Empty reports whether the station has nothing at all to play.
func (ix *Index) Empty() bool {
	return len(ix.Music()) == 0 && len(ix.Segments("")) == 0
}

func toAssets(paths []string, kind Kind) []Asset {
	out := make([]Asset, 0, len(paths))
	for _, p := range paths {
		out = append(out, Asset{Path: p, Kind: kind})
	}
	return out
}

func scanAudio(dir string, recursive bool) []string {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil
	}
	var out []string
	if recursive {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree; keep walking
			}
			if !d.IsDir() && audioExts[strings.ToLower(filepath.Ext(path))] {
				out = append(out, path)
			}
			return nil
		})
		return out
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
