// Package music controls background playback volume: a Provider abstracts
// the streaming service and the Ducker fades it down while the trainer
// voice speaks.
package music

import (
	"context"
	"errors"
)

// Provider failure classes, mapped from the streaming service's responses.
// All music failures are best-effort territory: callers log and move on, a
// workout never blocks on its soundtrack.
var (
	ErrNoActiveDevice = errors.New("music: no active playback device")
	ErrForbidden      = errors.New("music: operation forbidden")
	ErrUnauthorized   = errors.New("music: unauthorized")
)

// Provider is the engine-facing contract of the music service.
type Provider interface {
	// Play starts playback of the given playlist or context URI.
	Play(ctx context.Context, playlist string) error
	// Pause pauses playback.
	Pause(ctx context.Context) error
	// Resume resumes paused playback.
	Resume(ctx context.Context) error
	// SetVolume sets playback volume as a percentage 0-100.
	SetVolume(ctx context.Context, percent int) error
}

// Nop is a Provider for running without music configured.
type Nop struct{}

func (Nop) Play(context.Context, string) error     { return nil }
func (Nop) Pause(context.Context) error            { return nil }
func (Nop) Resume(context.Context) error           { return nil }
func (Nop) SetVolume(context.Context, int) error   { return nil }
