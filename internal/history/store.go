// Package history persists completed workout sessions and derives streak
// and lifetime-total statistics from them.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fitcue/fitcue/internal/coach"
)

// Store persists session records in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dir/history.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id                  TEXT PRIMARY KEY,
		workout_id          TEXT NOT NULL,
		workout_name        TEXT NOT NULL,
		started_at          TEXT NOT NULL,
		completed_at        TEXT NOT NULL,
		actual_seconds      INTEGER NOT NULL,
		planned_seconds     INTEGER NOT NULL,
		exercises_completed INTEGER NOT NULL,
		total_exercises     INTEGER NOT NULL,
		intensity           INTEGER NOT NULL,
		estimated_calories  REAL NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts a completed session.
func (s *Store) Record(rec coach.SessionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, workout_id, workout_name, started_at, completed_at,
			actual_seconds, planned_seconds, exercises_completed, total_exercises,
			intensity, estimated_calories)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		rec.WorkoutID,
		rec.WorkoutName,
		rec.StartedAt.UTC().Format(time.RFC3339),
		rec.CompletedAt.UTC().Format(time.RFC3339),
		int64(rec.ActualDuration.Seconds()),
		int64(rec.PlannedDuration.Seconds()),
		rec.ExercisesCompleted,
		rec.TotalExercises,
		rec.Intensity,
		rec.EstimatedCalories,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Recent returns the most recent sessions, newest first.
func (s *Store) Recent(limit int) ([]coach.SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT workout_id, workout_name, started_at, completed_at,
			actual_seconds, planned_seconds, exercises_completed, total_exercises,
			intensity, estimated_calories
		FROM sessions ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []coach.SessionRecord
	for rows.Next() {
		var rec coach.SessionRecord
		var startedAt, completedAt string
		var actualSecs, plannedSecs int64
		err := rows.Scan(
			&rec.WorkoutID, &rec.WorkoutName, &startedAt, &completedAt,
			&actualSecs, &plannedSecs, &rec.ExercisesCompleted, &rec.TotalExercises,
			&rec.Intensity, &rec.EstimatedCalories,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
		}
		if rec.CompletedAt, err = time.Parse(time.RFC3339, completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at %q: %w", completedAt, err)
		}
		rec.ActualDuration = time.Duration(actualSecs) * time.Second
		rec.PlannedDuration = time.Duration(plannedSecs) * time.Second
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Streak summarizes consecutive workout days.
type Streak struct {
	Current int // consecutive days ending today or yesterday
	Longest int
}

// Totals are lifetime aggregates over all recorded sessions.
type Totals struct {
	Sessions      int
	ActiveTime    time.Duration
	Calories      float64
	ExercisesDone int
}

// CurrentStreak computes the streak as of now. A streak counts consecutive
// calendar days with at least one completed session; the current streak
// survives until a full day is missed, so finishing yesterday but not yet
// today still counts.
func (s *Store) CurrentStreak(now time.Time) (Streak, error) {
	rows, err := s.db.Query(`SELECT DISTINCT date(completed_at) FROM sessions ORDER BY date(completed_at)`)
	if err != nil {
		return Streak{}, fmt.Errorf("querying session dates: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var days []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return Streak{}, fmt.Errorf("scanning date: %w", err)
		}
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			return Streak{}, fmt.Errorf("parsing date %q: %w", day, err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return Streak{}, err
	}
	return computeStreak(days, now), nil
}

func computeStreak(days []time.Time, now time.Time) Streak {
	if len(days) == 0 {
		return Streak{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var st Streak
	run := 1
	st.Longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
	}

	// The trailing run is current only if it reaches today or yesterday.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	last := days[len(days)-1]
	if today.Sub(last) <= 24*time.Hour {
		st.Current = run
	}
	return st
}

// LifetimeTotals aggregates all recorded sessions.
func (s *Store) LifetimeTotals() (Totals, error) {
	var t Totals
	var activeSecs sql.NullInt64
	var calories sql.NullFloat64
	var exercises sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), SUM(actual_seconds), SUM(estimated_calories), SUM(exercises_completed) FROM sessions`,
	).Scan(&t.Sessions, &activeSecs, &calories, &exercises)
	if err != nil {
		return Totals{}, fmt.Errorf("querying totals: %w", err)
	}
	t.ActiveTime = time.Duration(activeSecs.Int64) * time.Second
	t.Calories = calories.Float64
	t.ExercisesDone = int(exercises.Int64)
	return t, nil
}

// Close closes the history database.
func (s *Store) Close() error {
	return s.db.Close()
}
