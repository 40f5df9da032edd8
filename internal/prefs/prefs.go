// Package prefs persists small user preferences between sessions: the music
// volume multiplier and the last playlist. Load and save are best effort; a
// missing or corrupt file falls back to defaults.
package prefs

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

type prefsData struct {
	VolumeMultiplier float64 `json:"volume_multiplier"`
	LastPlaylist     string  `json:"last_playlist"`
	LastWorkoutID    string  `json:"last_workout_id"`
}

// Prefs is a JSON-file-backed preference store. Setters save immediately.
type Prefs struct {
	filePath string
	data     prefsData
	logger   *log.Logger
}

// New loads preferences from dir/prefs.json, creating defaults when the
// file doesn't exist yet.
func New(dir string, logger *log.Logger) *Prefs {
	p := &Prefs{
		filePath: filepath.Join(dir, "prefs.json"),
		logger:   logger,
	}
	p.load()
	return p
}

// VolumeMultiplier returns the user's music volume multiplier (0-1).
func (p *Prefs) VolumeMultiplier() float64 {
	return p.data.VolumeMultiplier
}

// SetVolumeMultiplier stores the music volume multiplier (clamped to 0-1).
func (p *Prefs) SetVolumeMultiplier(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.data.VolumeMultiplier = v
	p.save()
}

// LastPlaylist returns the last Spotify playlist URI used.
func (p *Prefs) LastPlaylist() string {
	return p.data.LastPlaylist
}

// SetLastPlaylist stores the playlist URI used for the current session.
func (p *Prefs) SetLastPlaylist(uri string) {
	p.data.LastPlaylist = uri
	p.save()
}

// LastWorkoutID returns the id of the workout the user last started.
func (p *Prefs) LastWorkoutID() string {
	return p.data.LastWorkoutID
}

// SetLastWorkoutID stores the workout the user just started.
func (p *Prefs) SetLastWorkoutID(id string) {
	p.data.LastWorkoutID = id
	p.save()
}

func (p *Prefs) load() {
	p.data = prefsData{VolumeMultiplier: 1.0}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("Prefs: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("Prefs: load %s failed to parse: %v", p.filePath, err)
		p.data = prefsData{VolumeMultiplier: 1.0}
		return
	}
	if p.data.VolumeMultiplier <= 0 || p.data.VolumeMultiplier > 1 {
		p.data.VolumeMultiplier = 1.0
	}
	p.logger.Printf("Prefs: load %s -> volume=%.2f playlist=%q", p.filePath, p.data.VolumeMultiplier, p.data.LastPlaylist)
}

func (p *Prefs) save() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("Prefs: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("Prefs: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("Prefs: save %s failed: %v", p.filePath, err)
	}
}
