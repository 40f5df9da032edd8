package music

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

type stubSpotify struct {
	status  int
	message string

	lastPath   string
	lastMethod string
	lastQuery  map[string]string
	lastBody   map[string]any
}

func (s *stubSpotify) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lastPath = r.URL.Path
		s.lastMethod = r.Method
		s.lastQuery = map[string]string{}
		for k := range r.URL.Query() {
			s.lastQuery[k] = r.URL.Query().Get(k)
		}
		s.lastBody = nil
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&s.lastBody) //nolint:errcheck
		}

		if s.status >= 400 {
			w.WriteHeader(s.status)
			fmt.Fprintf(w, `{"error":{"status":%d,"message":%q}}`, s.status, s.message)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func newStubProvider(t *testing.T, stub *stubSpotify) *Spotify {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	return NewSpotifyWithClient(srv.Client(), log.New(os.Stderr, "", 0),
		spotify.WithBaseURL(srv.URL+"/"))
}

func TestSpotifyPlaySendsPlaybackContext(t *testing.T) {
	stub := &stubSpotify{}
	p := newStubProvider(t, stub)

	err := p.Play(context.Background(), "spotify:playlist:abc123")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, stub.lastMethod)
	assert.Equal(t, "/me/player/play", stub.lastPath)
	assert.Equal(t, "spotify:playlist:abc123", stub.lastBody["context_uri"])
}

func TestSpotifySetVolumeClampsPercent(t *testing.T) {
	stub := &stubSpotify{}
	p := newStubProvider(t, stub)

	require.NoError(t, p.SetVolume(context.Background(), 150))
	assert.Equal(t, "100", stub.lastQuery["volume_percent"])

	require.NoError(t, p.SetVolume(context.Background(), -10))
	assert.Equal(t, "0", stub.lastQuery["volume_percent"])

	require.NoError(t, p.SetVolume(context.Background(), 42))
	assert.Equal(t, "42", stub.lastQuery["volume_percent"])
}

func TestSpotifyErrorMapping(t *testing.T) {
	cases := []struct {
		status  int
		wantErr error
	}{
		{http.StatusNotFound, ErrNoActiveDevice},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusUnauthorized, ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(strconv.Itoa(tc.status), func(t *testing.T) {
			stub := &stubSpotify{status: tc.status, message: "nope"}
			p := newStubProvider(t, stub)

			err := p.SetVolume(context.Background(), 50)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSpotifyPauseAndResume(t *testing.T) {
	stub := &stubSpotify{}
	p := newStubProvider(t, stub)

	require.NoError(t, p.Pause(context.Background()))
	assert.Equal(t, "/me/player/pause", stub.lastPath)

	require.NoError(t, p.Resume(context.Background()))
	assert.Equal(t, "/me/player/play", stub.lastPath)
}
