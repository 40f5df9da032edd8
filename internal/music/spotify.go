package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Spotify is a Provider backed by the Spotify Web API (Connect endpoints).
// It requires an access token with playback scopes; obtaining one is the
// caller's concern.
type Spotify struct {
	client *spotify.Client
	logger *log.Logger
}

// NewSpotify creates a Spotify provider from a pre-obtained access token.
func NewSpotify(ctx context.Context, accessToken string, logger *log.Logger) *Spotify {
	if logger == nil {
		panic("Spotify: logger cannot be nil")
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	httpClient := oauth2.NewClient(ctx, src)
	return &Spotify{client: spotify.New(httpClient), logger: logger}
}

// NewSpotifyWithClient creates a provider from a caller-supplied HTTP
// client, used by tests to point at a stub server.
func NewSpotifyWithClient(httpClient *http.Client, logger *log.Logger, opts ...spotify.ClientOption) *Spotify {
	return &Spotify{client: spotify.New(httpClient, opts...), logger: logger}
}

// Play implements Provider.
func (s *Spotify) Play(ctx context.Context, playlist string) error {
	uri := spotify.URI(playlist)
	err := s.client.PlayOpt(ctx, &spotify.PlayOptions{PlaybackContext: &uri})
	return s.mapErr("play", err)
}

// Pause implements Provider.
func (s *Spotify) Pause(ctx context.Context) error {
	return s.mapErr("pause", s.client.Pause(ctx))
}

// Resume implements Provider.
func (s *Spotify) Resume(ctx context.Context) error {
	return s.mapErr("resume", s.client.Play(ctx))
}

// SetVolume implements Provider.
func (s *Spotify) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return s.mapErr("volume", s.client.Volume(ctx, percent))
}

func (s *Spotify) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se spotify.Error
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", ErrNoActiveDevice, op, se.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s: %s", ErrForbidden, op, se.Message)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", ErrUnauthorized, op, se.Message)
		}
	}
	return fmt.Errorf("music: %s: %w", op, err)
}
