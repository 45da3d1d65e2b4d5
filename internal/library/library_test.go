package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Mood
	}{
		{"artist match", "/music/Miles Davis - So What.mp3", Mood{0.4, 0.85, "jazz"}},
		{"case insensitive", "/music/MILES DAVIS - so what.flac", Mood{0.4, 0.85, "jazz"}},
		{"longest match wins over genre keyword", "/music/jazz/Bill Evans - Peace Piece.mp3", Mood{0.25, 0.95, "jazz"}},
		{"specific beats generic electronic", "/music/Nicolas Jaar - Space Is Only Noise.mp3", Mood{0.45, 0.55, "electronic_chill"}},
		{"directory name classifies", "/archive/funk/unknown_artist.mp3", Mood{0.75, 0.85, "funk"}},
		{"no match is neutral", "/music/Totally Unknown Band.mp3", Mood{0.5, 0.5, VibeUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.path)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSegmentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/segs/listener_dedication_20260101.mp3", "listener_dedication"},
		{"/segs/dedication_night_owls.mp3", "dedication"},
		{"/segs/station_id_03.mp3", "station_id"},
		{"/segs/random_jingle.mp3", "other"},
	}
	for _, tt := range tests {
		if got := SegmentType(tt.path); got != tt.want {
			t.Errorf("SegmentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsSingleUse(t *testing.T) {
	if !IsSingleUse("/s/listener_dedication_x.mp3") {
		t.Error("listener dedication should be single use")
	}
	if IsSingleUse("/s/dedication_x.mp3") {
		t.Error("generated dedication should be reusable")
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		a    Asset
		want string
	}{
		{"official video", Asset{Path: "/m/Song (Official Video).mp3", Kind: KindMusic}, "Song"},
		{"full album", Asset{Path: "/m/Band [Full Album 1975].flac", Kind: KindMusic}, "Band"},
		{"chunk suffix", Asset{Path: "/m/Long Mix_seg02_07.mp3", Kind: KindMusic}, "Long Mix"},
		{"pipe tail", Asset{Path: "/m/Track ｜ uploaded by someone.mp3", Kind: KindMusic}, "Track"},
		{"segment friendly name", Asset{Path: "/s/station_id_04.mp3", Kind: KindSegment}, "WVOID-FM"},
		{"listener dedication display", Asset{Path: "/s/listener_dedication_1.mp3", Kind: KindSegment}, "For the Night Owls"},
		{"unknown segment", Asset{Path: "/s/mystery.mp3", Kind: KindSegment}, "Transmission"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.a); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.a.Path, got, tt.want)
			}
		})
	}
}

func TestIndexScan(t *testing.T) {
	root := t.TempDir()
	musicDir := filepath.Join(root, "music")
	archiveDir := filepath.Join(root, "archive", "artist", "album")
	segDir := filepath.Join(root, "segments")
	podDir := filepath.Join(root, "podcasts")
	for _, d := range []string{musicDir, archiveDir, segDir, filepath.Join(segDir, "late_night"), podDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	touch := func(p string) {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	touch(filepath.Join(musicDir, "a.mp3"))
	touch(filepath.Join(musicDir, "b.flac"))
	touch(filepath.Join(musicDir, "notes.txt"))
	touch(filepath.Join(archiveDir, "deep.mp3"))
	touch(filepath.Join(segDir, "station_id.mp3"))
	touch(filepath.Join(segDir, "late_night", "monologue.mp3"))

	ix := NewIndex([]string{musicDir, filepath.Join(root, "archive")}, segDir, podDir)

	music := ix.Music()
	require.Len(t, music, 3, "flat dir non-recursive plus archive recursive")

	// Period sub-folder preferred when populated.
	segs := ix.Segments("late_night")
	require.Len(t, segs, 1)
	require.Equal(t, "monologue", segs[0].Name())

	// Empty period falls back to the flat root.
	segs = ix.Segments("morning")
	require.Len(t, segs, 1)
	require.Equal(t, "station_id", segs[0].Name())

	require.False(t, ix.Empty())
}

func TestIndexInvalidate(t *testing.T) {
	root := t.TempDir()
	musicDir := filepath.Join(root, "music")
	require.NoError(t, os.MkdirAll(musicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "one.mp3"), []byte("x"), 0o644))

	ix := NewIndex([]string{musicDir}, filepath.Join(root, "segs"), filepath.Join(root, "pods"))
	require.Len(t, ix.Music(), 1)

	require.NoError(t, os.WriteFile(filepath.Join(musicDir, "two.mp3"), []byte("x"), 0o644))
	require.Len(t, ix.Music(), 1, "cached until invalidated")

	ix.Invalidate()
	require.Len(t, ix.Music(), 2)
}

func TestPodcastsNewestFirst(t *testing.T) {
	root := t.TempDir()
	podDir := filepath.Join(root, "podcasts")
	require.NoError(t, os.MkdirAll(podDir, 0o755))

	older := filepath.Join(podDir, "older.mp3")
	newer := filepath.Join(podDir, "newer.mp3")
	require.NoError(t, os.WriteFile(older, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("x"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	ix := NewIndex(nil, filepath.Join(root, "segs"), podDir)
	pods := ix.Podcasts()
	require.Len(t, pods, 2)
	require.Equal(t, "newer", pods[0].Name())
}
