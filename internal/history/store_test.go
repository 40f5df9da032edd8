package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcue/fitcue/internal/coach"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(completedAt time.Time) coach.SessionRecord {
	return coach.SessionRecord{
		WorkoutID:          "builtin-quick-core",
		WorkoutName:        "Quick Core",
		StartedAt:          completedAt.Add(-8 * time.Minute),
		CompletedAt:        completedAt,
		ActualDuration:     8 * time.Minute,
		PlannedDuration:    8 * time.Minute,
		ExercisesCompleted: 5,
		TotalExercises:     5,
		Intensity:          0,
		EstimatedCalories:  56,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	first := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	second := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(record(first)))
	require.NoError(t, s.Record(record(second)))

	recs, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest first.
	assert.True(t, recs[0].CompletedAt.Equal(second))
	assert.True(t, recs[1].CompletedAt.Equal(first))
	assert.Equal(t, "Quick Core", recs[0].WorkoutName)
	assert.Equal(t, 8*time.Minute, recs[0].ActualDuration)
	assert.Equal(t, 5, recs[0].ExercisesCompleted)
	assert.InDelta(t, 56, recs[0].EstimatedCalories, 0.001)
}

func TestRecentHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(record(base.Add(time.Duration(i)*time.Hour))))
	}
	recs, err := s.Recent(3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestComputeStreak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		days []time.Time
		want Streak
	}{
		{"empty", nil, Streak{}},
		{"single today", []time.Time{day(10)}, Streak{Current: 1, Longest: 1}},
		{"run ending yesterday still current", []time.Time{day(7), day(8), day(9)}, Streak{Current: 3, Longest: 3}},
		{"run broken two days ago", []time.Time{day(6), day(7), day(8)}, Streak{Current: 0, Longest: 3}},
		{"longest in the past", []time.Time{day(1), day(2), day(3), day(4), day(9), day(10)}, Streak{Current: 2, Longest: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computeStreak(tc.days, now))
		})
	}
}

func TestCurrentStreakFromStore(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Two sessions on the same day count once.
	require.NoError(t, s.Record(record(time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC))))
	require.NoError(t, s.Record(record(time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC))))
	require.NoError(t, s.Record(record(time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC))))

	st, err := s.CurrentStreak(now)
	require.NoError(t, err)
	assert.Equal(t, Streak{Current: 2, Longest: 2}, st)
}

func TestLifetimeTotals(t *testing.T) {
	s := openTestStore(t)

	// Empty store reports zeros, not a SQL NULL error.
	tot, err := s.LifetimeTotals()
	require.NoError(t, err)
	assert.Equal(t, Totals{}, tot)

	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(record(base)))
	require.NoError(t, s.Record(record(base.Add(24*time.Hour))))

	tot, err = s.LifetimeTotals()
	require.NoError(t, err)
	assert.Equal(t, 2, tot.Sessions)
	assert.Equal(t, 16*time.Minute, tot.ActiveTime)
	assert.InDelta(t, 112, tot.Calories, 0.001)
	assert.Equal(t, 10, tot.ExercisesDone)
}
