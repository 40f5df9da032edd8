package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--data-dir", t.TempDir()}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.ElevenLabs.VoiceID)
	assert.Equal(t, "eleven_turbo_v2", cfg.ElevenLabs.ModelID)
	assert.Equal(t, 0.65, cfg.Music.NormalVolume)
	assert.Equal(t, 0.30, cfg.Music.DuckedBaseline)
	assert.Equal(t, filepath.Join(cfg.DataDir, "fitcue.log"), cfg.LogFile)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	doc := `
data_dir: ` + dir + `
elevenlabs:
  api_key: test-key
  voice_id: custom-voice
spotify:
  access_token: tok
  playlist: spotify:playlist:abc
music:
  normal_volume: 0.8
  ducked_baseline: 0.2
`
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0644))

	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", cfgPath}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.ElevenLabs.APIKey)
	assert.Equal(t, "custom-voice", cfg.ElevenLabs.VoiceID)
	assert.Equal(t, "spotify:playlist:abc", cfg.Spotify.Playlist)
	assert.Equal(t, 0.8, cfg.Music.NormalVolume)
	assert.Equal(t, 0.2, cfg.Music.DuckedBaseline)
}

func TestFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	doc := "data_dir: " + dir + "\nspotify:\n  playlist: spotify:playlist:from-file\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0644))

	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", cfgPath, "--playlist", "spotify:playlist:from-flag"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "spotify:playlist:from-flag", cfg.Spotify.Playlist)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("FITCUE_ELEVENLABS_API_KEY", "from-env")

	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--data-dir", t.TempDir()}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ElevenLabs.APIKey)
}

func TestLoadValidatesVolumes(t *testing.T) {
	dir := t.TempDir()
	doc := "data_dir: " + dir + "\nmusic:\n  normal_volume: 0.3\n  ducked_baseline: 0.7\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0644))

	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", cfgPath}))

	_, err := Load(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ducked_baseline")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: ["), 0644))

	fs := NewFlagSet()
	require.NoError(t, fs.Parse([]string{"--config", cfgPath}))

	_, err := Load(fs)
	require.Error(t, err)
}
