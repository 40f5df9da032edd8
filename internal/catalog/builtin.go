// Package catalog provides the workouts a session can run: a built-in set,
// a YAML file loader for user-defined workouts, and an optional wger.de
// lookup that fills in missing exercise instructions.
package catalog

import (
	"time"

	"github.com/fitcue/fitcue/internal/coach"
)

// BuiltinWorkouts defines the workouts available without any configuration.
var BuiltinWorkouts = []coach.Workout{
	{
		ID:                     "builtin-quick-core",
		Title:                  "Quick Core",
		PlannedDurationMinutes: 8,
		Exercises: []coach.Exercise{
			{
				ID:   "plank",
				Name: "Plank",
				Instructions: []string{
					"Forearms on the floor, elbows under shoulders.",
					"Keep a straight line from head to heels.",
				},
				Duration:     45 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"abs", "lower back"},
			},
			{
				ID:   "bicycle-crunch",
				Name: "Bicycle Crunches",
				Instructions: []string{
					"Alternate elbow to opposite knee.",
					"Keep your lower back pressed into the floor.",
				},
				Duration:     40 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"abs", "obliques"},
			},
			{
				ID:   "mountain-climber",
				Name: "Mountain Climbers",
				Instructions: []string{
					"High plank, drive knees toward your chest.",
					"Keep hips level, move fast but controlled.",
				},
				Duration:     30 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"abs", "shoulders"},
			},
			{
				ID:   "side-plank-left",
				Name: "Side Plank Left",
				Instructions: []string{
					"Stack your feet, lift your hips off the floor.",
				},
				Duration:     30 * time.Second,
				RestDuration: 15 * time.Second,
				MuscleGroups: []string{"obliques"},
			},
			{
				ID:   "side-plank-right",
				Name: "Side Plank Right",
				Instructions: []string{
					"Stack your feet, lift your hips off the floor.",
				},
				Duration:     30 * time.Second,
				RestDuration: 0,
				MuscleGroups: []string{"obliques"},
			},
		},
	},
	{
		ID:                     "builtin-full-body",
		Title:                  "Full Body Blast",
		PlannedDurationMinutes: 15,
		Exercises: []coach.Exercise{
			{
				ID:   "jumping-jack",
				Name: "Jumping Jacks",
				Instructions: []string{
					"Jump feet wide while raising arms overhead.",
					"Land softly on the balls of your feet.",
				},
				Duration:     60 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"full body"},
			},
			{
				ID:   "bodyweight-squat",
				Name: "Bodyweight Squats",
				Instructions: []string{
					"Feet shoulder width, weight in your heels.",
					"Sit back until thighs are parallel to the floor.",
				},
				Duration:     50 * time.Second,
				RestDuration: 25 * time.Second,
				MuscleGroups: []string{"quads", "glutes"},
			},
			{
				ID:   "push-up",
				Name: "Push Ups",
				Instructions: []string{
					"Hands under shoulders, body in a straight line.",
					"Lower until your chest nearly touches the floor.",
				},
				Duration:     40 * time.Second,
				RestDuration: 30 * time.Second,
				MuscleGroups: []string{"chest", "triceps"},
			},
			{
				ID:   "reverse-lunge",
				Name: "Reverse Lunges",
				Instructions: []string{
					"Step back, drop the rear knee toward the floor.",
					"Alternate legs each rep.",
				},
				Duration:     50 * time.Second,
				RestDuration: 25 * time.Second,
				MuscleGroups: []string{"quads", "glutes", "hamstrings"},
			},
			{
				ID:   "burpee",
				Name: "Burpees",
				Instructions: []string{
					"Squat, kick back to plank, jump up tall.",
					"Pace yourself, this one stings.",
				},
				Duration:     40 * time.Second,
				RestDuration: 30 * time.Second,
				MuscleGroups: []string{"full body"},
			},
			{
				ID:   "glute-bridge",
				Name: "Glute Bridges",
				Instructions: []string{
					"Drive your hips up, squeeze at the top.",
				},
				Duration:     45 * time.Second,
				RestDuration: 0,
				MuscleGroups: []string{"glutes", "hamstrings"},
			},
		},
	},
	{
		ID:                     "builtin-hiit-sprint",
		Title:                  "HIIT Sprint",
		PlannedDurationMinutes: 10,
		Exercises: []coach.Exercise{
			{
				ID:   "high-knees",
				Name: "High Knees",
				Instructions: []string{
					"Run in place, knees to hip height.",
				},
				Duration:     30 * time.Second,
				RestDuration: 15 * time.Second,
				MuscleGroups: []string{"quads", "calves"},
			},
			{
				ID:   "squat-jump",
				Name: "Squat Jumps",
				Instructions: []string{
					"Explode up from the bottom of a squat.",
					"Absorb the landing with soft knees.",
				},
				Duration:     25 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"quads", "glutes"},
			},
			{
				ID:   "skater-hop",
				Name: "Skater Hops",
				Instructions: []string{
					"Leap side to side, land on one foot.",
				},
				Duration:     30 * time.Second,
				RestDuration: 15 * time.Second,
				MuscleGroups: []string{"glutes", "calves"},
			},
			{
				ID:   "plank-jack",
				Name: "Plank Jacks",
				Instructions: []string{
					"Hold a plank, jump your feet wide and back.",
				},
				Duration:     25 * time.Second,
				RestDuration: 20 * time.Second,
				MuscleGroups: []string{"abs", "shoulders"},
			},
			{
				ID:   "sprint-in-place",
				Name: "Sprint In Place",
				Instructions: []string{
					"All out. Arms pumping, fast feet.",
				},
				Duration:     20 * time.Second,
				RestDuration: 0,
				MuscleGroups: []string{"full body"},
			},
		},
	},
}
