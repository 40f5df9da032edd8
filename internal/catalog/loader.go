package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fitcue/fitcue/internal/coach"
)

// workoutFile is the YAML document shape for user-defined workouts.
type workoutFile struct {
	Workouts []workoutSpec `yaml:"workouts"`
}

type workoutSpec struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title"`
	PlannedMinutes int            `yaml:"planned_minutes"`
	Exercises      []exerciseSpec `yaml:"exercises"`
}

type exerciseSpec struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Instructions    []string `yaml:"instructions"`
	DurationSeconds int      `yaml:"duration_seconds"`
	RestSeconds     int      `yaml:"rest_seconds"`
	MuscleGroups    []string `yaml:"muscle_groups"`
	Equipment       []string `yaml:"equipment"`
}

// LoadFile reads user-defined workouts from a YAML file. Every workout is
// validated; a single bad entry fails the whole load so a typo never
// silently drops a workout.
func LoadFile(path string) ([]coach.Workout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workout file: %w", err)
	}
	return parseWorkouts(data)
}

func parseWorkouts(data []byte) ([]coach.Workout, error) {
	var file workoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing workout file: %w", err)
	}

	workouts := make([]coach.Workout, 0, len(file.Workouts))
	for i, spec := range file.Workouts {
		w, err := spec.toWorkout()
		if err != nil {
			return nil, fmt.Errorf("workout %d (%q): %w", i+1, spec.Title, err)
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

func (s workoutSpec) toWorkout() (coach.Workout, error) {
	if strings.TrimSpace(s.Title) == "" {
		return coach.Workout{}, fmt.Errorf("title is required")
	}
	if len(s.Exercises) == 0 {
		return coach.Workout{}, fmt.Errorf("at least one exercise is required")
	}

	id := s.ID
	if id == "" {
		id = slugify(s.Title)
	}

	w := coach.Workout{
		ID:                     id,
		Title:                  s.Title,
		PlannedDurationMinutes: s.PlannedMinutes,
		Exercises:              make([]coach.Exercise, 0, len(s.Exercises)),
	}
	for j, es := range s.Exercises {
		ex, err := es.toExercise()
		if err != nil {
			return coach.Workout{}, fmt.Errorf("exercise %d (%q): %w", j+1, es.Name, err)
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if w.PlannedDurationMinutes == 0 {
		w.PlannedDurationMinutes = int((w.TotalDuration() + time.Minute - 1) / time.Minute)
	}
	return w, nil
}

func (s exerciseSpec) toExercise() (coach.Exercise, error) {
	if strings.TrimSpace(s.Name) == "" {
		return coach.Exercise{}, fmt.Errorf("name is required")
	}
	if s.DurationSeconds <= 0 {
		return coach.Exercise{}, fmt.Errorf("duration_seconds must be positive, got %d", s.DurationSeconds)
	}
	if s.RestSeconds < 0 {
		return coach.Exercise{}, fmt.Errorf("rest_seconds cannot be negative, got %d", s.RestSeconds)
	}

	id := s.ID
	if id == "" {
		id = slugify(s.Name)
	}
	return coach.Exercise{
		ID:           id,
		Name:         s.Name,
		Instructions: s.Instructions,
		Duration:     time.Duration(s.DurationSeconds) * time.Second,
		RestDuration: time.Duration(s.RestSeconds) * time.Second,
		MuscleGroups: s.MuscleGroups,
		Equipment:    s.Equipment,
	}, nil
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
