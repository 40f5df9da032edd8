package catalog

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcue/fitcue/internal/coach"
)

func newWgerTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/exercise/search/", func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		if term == "Obscure Move" {
			fmt.Fprint(w, `{"suggestions":[]}`)
			return
		}
		fmt.Fprint(w, `{"suggestions":[{"value":"Push Up","data":{"id":42,"base_id":7}}]}`)
	})
	mux.HandleFunc("/exercise/42/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Push Up","description":"<p>Keep your body straight. Lower until your chest nearly touches the floor. Press back up.</p>"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWgerInstructions(t *testing.T) {
	srv := newWgerTestServer(t)
	c := NewWgerClientWithBaseURL(srv.URL, log.New(os.Stderr, "", 0))

	lines, err := c.Instructions(context.Background(), "Push Up")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Keep your body straight.",
		"Lower until your chest nearly touches the floor.",
		"Press back up.",
	}, lines)
}

func TestWgerInstructionsNoMatch(t *testing.T) {
	srv := newWgerTestServer(t)
	c := NewWgerClientWithBaseURL(srv.URL, log.New(os.Stderr, "", 0))

	lines, err := c.Instructions(context.Background(), "Obscure Move")
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestWgerEnrichFillsOnlyMissing(t *testing.T) {
	srv := newWgerTestServer(t)
	c := NewWgerClientWithBaseURL(srv.URL, log.New(os.Stderr, "", 0))

	w := coach.Workout{
		Title: "Test",
		Exercises: []coach.Exercise{
			{Name: "Push Up", Duration: 30 * time.Second},
			{Name: "Plank", Duration: 30 * time.Second, Instructions: []string{"Hold it."}},
		},
	}
	c.Enrich(context.Background(), &w)

	// Filled from the server, capped at two spoken lines.
	assert.Equal(t, []string{
		"Keep your body straight.",
		"Lower until your chest nearly touches the floor.",
	}, w.Exercises[0].Instructions)
	// Existing instructions untouched.
	assert.Equal(t, []string{"Hold it."}, w.Exercises[1].Instructions)
}

func TestWgerEnrichSurvivesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewWgerClientWithBaseURL(srv.URL, log.New(os.Stderr, "", 0))

	w := coach.Workout{
		Title:     "Test",
		Exercises: []coach.Exercise{{Name: "Push Up", Duration: 30 * time.Second}},
	}
	c.Enrich(context.Background(), &w)
	assert.Empty(t, w.Exercises[0].Instructions, "lookup failure leaves the exercise as-is")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "One two three", stripHTML("<p>One <b>two</b>\nthree</p>"))
	assert.Equal(t, "plain", stripHTML("plain"))
}
