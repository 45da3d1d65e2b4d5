package messages

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "messages.json"))
}

func TestAddAndRecent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("play some sade please", "web", "", "1.2.3.4")
	require.NoError(t, err)
	_, err = s.Add("dedication to the night shift", "telegram", "nightowl", "")
	require.NoError(t, err)

	got := s.Recent(20)
	require.Len(t, got, 2)
	require.Equal(t, "dedication to the night shift", got[0].Message, "newest first")
	require.Equal(t, "play some sade please", got[1].Message)
}

func TestAddRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("   ", "web", "", "k")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = s.Add(strings.Repeat("x", MaxLen+1), "web", "", "k")
	require.ErrorIs(t, err, ErrInvalid)

	m, err := s.Add("  trimmed  ", "web", "", "k")
	require.NoError(t, err)
	require.Equal(t, "trimmed", m.Message)
	require.NotEmpty(t, m.ID)
}

func TestLengthLimitCountsCharactersNotBytes(t *testing.T) {
	s := newTestStore(t)

	// 200 two-byte characters: well under the limit.
	_, err := s.Add(strings.Repeat("é", 200), "web", "", "k")
	require.NoError(t, err)

	_, err = s.Add(strings.Repeat("é", MaxLen), "web", "", "k")
	require.NoError(t, err)

	_, err = s.Add(strings.Repeat("é", MaxLen+1), "web", "", "k")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRingCapacity(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < keep+10; i++ {
		_, err := s.Add("msg "+strings.Repeat("a", i%5+1), "web", "", "k")
		require.NoError(t, err)
	}
	all := s.load()
	require.Len(t, all, keep)

	got := s.Recent(20)
	require.Len(t, got, 20)
}

func TestRecentRedactsClientKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add("hello", "web", "user", "10.0.0.1")
	require.NoError(t, err)

	// The public view carries no identity fields at all.
	got := s.Recent(1)
	require.Len(t, got, 1)
	require.Equal(t, "hello", got[0].Message)
	require.False(t, got[0].Read)
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.save(nil))
	_, err := s.Add("first", "web", "", "k")
	require.NoError(t, err)
	require.Len(t, s.Recent(5), 1)
}
