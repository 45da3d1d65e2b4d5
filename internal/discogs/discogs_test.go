package discogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestParseTrackName(t *testing.T) {
	tests := []struct {
		in         string
		wantArtist string
		wantTitle  string
	}{
		{"Miles Davis - So What", "Miles Davis", "So What"},
		{"01 - Blue in Green", "", "Blue in Green"},
		{"3. Freddie Freeloader", "", "Freddie Freeloader"},
		{"All Blues (Miles Davis)", "Miles Davis", "All Blues"},
		{"Just A Title", "", "Just A Title"},
	}
	for _, tt := range tests {
		artist, title := ParseTrackName(tt.in)
		if artist != tt.wantArtist || title != tt.wantTitle {
			t.Errorf("ParseTrackName(%q) = (%q, %q), want (%q, %q)",
				tt.in, artist, title, tt.wantArtist, tt.wantTitle)
		}
	}
}

func TestNewWithoutToken(t *testing.T) {
	c := New("")
	require.Nil(t, c)

	res, err := c.Search(context.Background(), "anything", "")
	require.NoError(t, err)
	require.Nil(t, res, "nil client always misses")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New("test-token")
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	// Route api.discogs.com at the test server.
	c.HTTP = &http.Client{
		Timeout:   time.Second,
		Transport: roundTripTo(srv.URL),
	}
	return c, srv
}

type roundTripTo string

func (r roundTripTo) RoundTrip(req *http.Request) (*http.Response, error) {
	u, _ := url.Parse(string(r))
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestSearchParsesAndCaches(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "Discogs token=test-token", r.Header.Get("Authorization"))
		require.Equal(t, "jazz", r.URL.Query().Get("genre"))
		require.Contains(t, r.URL.Query().Get("q"), "Miles Davis")
		w.Write([]byte(`{"results": [{
			"id": 123, "title": "Miles Davis - Kind Of Blue", "year": "1959",
			"uri": "/release/123", "thumb": "http://img/t.jpg",
			"label": ["Columbia"], "format": ["Vinyl"]
		}]}`))
	})

	res, err := c.Search(context.Background(), "Miles Davis - So What", "jazz")
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, 123, res.ReleaseID)
	require.Equal(t, "Miles Davis", res.Artist)
	require.Equal(t, "Kind Of Blue", res.Title)
	require.Equal(t, 1959, res.Year)
	require.Equal(t, "https://www.discogs.com/release/123", res.URL)
	require.Equal(t, "Columbia", res.Label)

	_, err = c.Search(context.Background(), "MILES DAVIS - SO WHAT", "jazz")
	require.NoError(t, err)
	require.Equal(t, 1, calls, "case-insensitive cache hit")
}

func TestSearchCachesMisses(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"results": []}`))
	})

	res, err := c.Search(context.Background(), "Nobody - Nothing", "")
	require.NoError(t, err)
	require.Nil(t, res)

	res, err = c.Search(context.Background(), "Nobody - Nothing", "")
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, 1, calls, "miss is cached")
}

func TestSearchErrorIsNegativeCached(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "x", "")
	require.Error(t, err)

	res, err := c.Search(context.Background(), "x", "")
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, 1, calls)
}
