package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fitcue/fitcue/internal/audio"
	"github.com/fitcue/fitcue/internal/catalog"
	"github.com/fitcue/fitcue/internal/coach"
	"github.com/fitcue/fitcue/internal/config"
	"github.com/fitcue/fitcue/internal/history"
	"github.com/fitcue/fitcue/internal/music"
	"github.com/fitcue/fitcue/internal/prefs"
	"github.com/fitcue/fitcue/internal/runutil"
	"github.com/fitcue/fitcue/internal/ui"
	"github.com/fitcue/fitcue/internal/voice"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fitcue: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.NewFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	logger := log.New(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
	}, "", log.LstdFlags)
	logger.Printf("fitcue starting, data dir %s", cfg.DataDir)

	userPrefs := prefs.New(cfg.DataDir, logger)

	store, err := history.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	workouts := catalog.BuiltinWorkouts
	if cfg.WorkoutFile != "" {
		loaded, err := catalog.LoadFile(cfg.WorkoutFile)
		if err != nil {
			return fmt.Errorf("loading %s: %w", cfg.WorkoutFile, err)
		}
		enrichCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		wger := catalog.NewWgerClient(logger)
		for i := range loaded {
			wger.Enrich(enrichCtx, &loaded[i])
		}
		cancel()
		workouts = append(workouts, loaded...)
	}

	// Audio output. A machine without a sound device still runs; cues are
	// silently dropped but captions and timing stay intact.
	var player audio.Player
	if otoPlayer, err := audio.NewOtoPlayer(voice.SampleRate, logger); err != nil {
		logger.Printf("audio device unavailable, running silent: %v", err)
		player = audio.NopPlayer{}
	} else {
		player = otoPlayer
	}
	defer player.Close() //nolint:errcheck

	// Voice pipeline: ElevenLabs with retries, beep fallback, audio cache.
	var primary voice.Synthesizer
	if cfg.ElevenLabs.APIKey != "" {
		elCfg := voice.DefaultElevenLabsConfig()
		elCfg.APIKey = cfg.ElevenLabs.APIKey
		elCfg.VoiceID = cfg.ElevenLabs.VoiceID
		elCfg.ModelID = cfg.ElevenLabs.ModelID
		primary = voice.NewRetrier(voice.NewElevenLabs(elCfg, logger), logger)
	} else {
		logger.Printf("no ElevenLabs key configured, using tone cues")
		primary = voice.NewToneSynthesizer()
	}
	cache := voice.NewAudioCache(voice.DefaultCacheBytes, voice.DefaultCacheTTL)
	dispatcher := voice.NewDispatcher(primary, voice.NewToneSynthesizer(), player, cache, logger)
	defer dispatcher.Shutdown()

	// Music. No token means no music control; the session runs fine.
	var provider music.Provider = music.Nop{}
	if cfg.Spotify.AccessToken != "" {
		provider = music.NewSpotify(context.Background(), cfg.Spotify.AccessToken, logger)
	}
	duckerCfg := music.DefaultDuckerConfig()
	duckerCfg.NormalVolume = cfg.Music.NormalVolume
	duckerCfg.DuckedBaseline = cfg.Music.DuckedBaseline
	ducker := music.NewDucker(provider, duckerCfg, userPrefs.VolumeMultiplier(), logger)
	defer ducker.Close()
	defer dispatcher.SpeakingEvents().Listen(ducker.OnSpeakingChanged)()

	engine := coach.NewEngine(dispatcher, coach.LinearEstimator{}, logger)
	defer engine.Shutdown()

	// Completed sessions go straight to history.
	defer engine.Completions().Listen(func(rec coach.SessionRecord) {
		if err := store.Record(rec); err != nil {
			logger.Printf("recording session failed: %v", err)
			return
		}
		logger.Printf("session recorded: %s, %d/%d exercises, %.0f kcal",
			rec.WorkoutName, rec.ExercisesCompleted, rec.TotalExercises, rec.EstimatedCalories)
	})()

	playlist := cfg.Spotify.Playlist
	if playlist == "" {
		playlist = userPrefs.LastPlaylist()
	}

	dashboard := ui.NewDashboard(logger, engine, workouts, func(w *coach.Workout) {
		userPrefs.SetLastWorkoutID(w.ID)
		ducker.Reset()
		if playlist == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Play(ctx, playlist); err != nil {
			logger.Printf("starting playlist failed: %v", err)
			return
		}
		userPrefs.SetLastPlaylist(playlist)
	})

	// Keep the ducker's baseline in step with the workout phase, and pause
	// the music alongside the session.
	snapChan := make(chan coach.Snapshot, 16)
	defer engine.Snapshots().Listen(snapChan)()
	runutil.SafeGo(logger, func() { trackPhases(snapChan, ducker, provider, logger) })

	// Tee application logs into the dashboard's log panel.
	logger.SetOutput(io.MultiWriter(logger.Writer(), dashboard.LogWriter()))

	if line, err := statsLine(store); err == nil {
		dashboard.SetStatsLine(line)
	}

	return dashboard.Run(engine.Snapshots(), dispatcher.SpeakingEvents())
}

// trackPhases mirrors session state onto the music side: baseline volume
// follows the phase, pause/resume follows the paused flag.
func trackPhases(snapChan <-chan coach.Snapshot, ducker *music.Ducker, provider music.Provider, logger *log.Logger) {
	var last coach.Snapshot
	for snap := range snapChan {
		if snap.Phase != last.Phase {
			ducker.SyncToPhase(snap.Phase)
		}
		if snap.Paused != last.Paused {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if snap.Paused {
				if err := provider.Pause(ctx); err != nil {
					logger.Printf("music pause failed: %v", err)
				}
			} else {
				if err := provider.Resume(ctx); err != nil {
					logger.Printf("music resume failed: %v", err)
				}
			}
			cancel()
		}
		last = snap
	}
}

func statsLine(store *history.Store) (string, error) {
	streak, err := store.CurrentStreak(time.Now())
	if err != nil {
		return "", err
	}
	totals, err := store.LifetimeTotals()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[gray]Streak:[white] %d day(s)  [gray]Best:[white] %d  [gray]Sessions:[white] %d  [gray]Calories:[white] %.0f",
		streak.Current, streak.Longest, totals.Sessions, totals.Calories), nil
}
