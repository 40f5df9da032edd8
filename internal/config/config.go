// Package config loads application settings from, in increasing precedence:
// defaults, an optional YAML config file, FITCUE_* environment variables,
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	DataDir     string `mapstructure:"data_dir"`
	LogFile     string `mapstructure:"log_file"`
	WorkoutFile string `mapstructure:"workout_file"`

	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Spotify    SpotifyConfig    `mapstructure:"spotify"`
	Music      MusicConfig      `mapstructure:"music"`
}

// ElevenLabsConfig holds the TTS credentials. An empty APIKey disables the
// network synthesizer; the on-device fallback still speaks.
type ElevenLabsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	VoiceID string `mapstructure:"voice_id"`
	ModelID string `mapstructure:"model_id"`
}

// SpotifyConfig holds a pre-obtained access token; there is no OAuth flow
// in the app. An empty token disables music control.
type SpotifyConfig struct {
	AccessToken string `mapstructure:"access_token"`
	Playlist    string `mapstructure:"playlist"`
}

// MusicConfig tunes the ducking levels (0-1).
type MusicConfig struct {
	NormalVolume   float64 `mapstructure:"normal_volume"`
	DuckedBaseline float64 `mapstructure:"ducked_baseline"`
}

// NewFlagSet defines the command-line flags.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fitcue", pflag.ContinueOnError)
	fs.String("config", "", "path to config file (default <data-dir>/config.yaml)")
	fs.String("data-dir", "", "directory for history, prefs and logs (default ~/.fitcue)")
	fs.String("workout-file", "", "YAML file with user-defined workouts")
	fs.String("playlist", "", "Spotify playlist URI for background music")
	return fs
}

// Load resolves the configuration. flags must already be parsed.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	// Every key needs a default: viper only resolves environment overrides
	// during Unmarshal for keys it already knows about.
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_file", "")
	v.SetDefault("workout_file", "")
	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("elevenlabs.model_id", "eleven_turbo_v2")
	v.SetDefault("spotify.access_token", "")
	v.SetDefault("spotify.playlist", "")
	v.SetDefault("music.normal_volume", 0.65)
	v.SetDefault("music.ducked_baseline", 0.30)

	v.SetEnvPrefix("FITCUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlag(v, flags, "data_dir", "data-dir"); err != nil {
		return Config{}, err
	}
	if err := bindFlag(v, flags, "workout_file", "workout-file"); err != nil {
		return Config{}, err
	}
	if err := bindFlag(v, flags, "spotify.playlist", "playlist"); err != nil {
		return Config{}, err
	}

	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; env and flags carry everything needed.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "fitcue.log")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Music.NormalVolume < 0 || c.Music.NormalVolume > 1 {
		return fmt.Errorf("music.normal_volume must be between 0 and 1, got %v", c.Music.NormalVolume)
	}
	if c.Music.DuckedBaseline < 0 || c.Music.DuckedBaseline > 1 {
		return fmt.Errorf("music.ducked_baseline must be between 0 and 1, got %v", c.Music.DuckedBaseline)
	}
	if c.Music.DuckedBaseline > c.Music.NormalVolume {
		return fmt.Errorf("music.ducked_baseline (%v) cannot exceed music.normal_volume (%v)",
			c.Music.DuckedBaseline, c.Music.NormalVolume)
	}
	return nil
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, flagName string) error {
	f := flags.Lookup(flagName)
	if f == nil {
		return fmt.Errorf("flag %q not defined", flagName)
	}
	// Bind only flags the user actually set so they override the file and
	// env values instead of stomping them with empty defaults.
	if !f.Changed {
		return nil
	}
	return v.BindPFlag(key, f)
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".fitcue")
}
