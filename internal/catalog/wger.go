package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitcue/fitcue/internal/coach"
)

const defaultWgerBaseURL = "https://wger.de/api/v2"

// WgerClient looks up exercises in the public wger.de exercise database.
// It is used opportunistically: when a loaded workout has an exercise with
// no instructions, the description from wger fills the gap.
type WgerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewWgerClient creates a client against the public wger API.
func NewWgerClient(logger *log.Logger) *WgerClient {
	if logger == nil {
		panic("WgerClient: logger cannot be nil")
	}
	return &WgerClient{
		baseURL:    defaultWgerBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// NewWgerClientWithBaseURL creates a client against a custom endpoint.
func NewWgerClientWithBaseURL(baseURL string, logger *log.Logger) *WgerClient {
	c := NewWgerClient(logger)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type wgerSearchResponse struct {
	Suggestions []struct {
		Value string `json:"value"`
		Data  struct {
			ID     int `json:"id"`
			BaseID int `json:"base_id"`
		} `json:"data"`
	} `json:"suggestions"`
}

type wgerExerciseResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Instructions searches wger for an exercise by name and returns its
// description split into sentences. A name with no match returns nil, nil.
func (c *WgerClient) Instructions(ctx context.Context, name string) ([]string, error) {
	q := url.Values{}
	q.Set("term", name)
	q.Set("language", "english")
	q.Set("format", "json")

	var search wgerSearchResponse
	if err := c.getJSON(ctx, "/exercise/search/?"+q.Encode(), &search); err != nil {
		return nil, fmt.Errorf("searching %q: %w", name, err)
	}
	if len(search.Suggestions) == 0 {
		return nil, nil
	}

	id := search.Suggestions[0].Data.ID
	var ex wgerExerciseResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/exercise/%d/?format=json", id), &ex); err != nil {
		return nil, fmt.Errorf("fetching exercise %d: %w", id, err)
	}
	return splitSentences(stripHTML(ex.Description)), nil
}

// Enrich fills in instructions for exercises that have none. Best effort:
// lookup failures are logged and the exercise is left as-is.
func (c *WgerClient) Enrich(ctx context.Context, w *coach.Workout) {
	for i := range w.Exercises {
		ex := &w.Exercises[i]
		if len(ex.Instructions) > 0 {
			continue
		}
		lines, err := c.Instructions(ctx, ex.Name)
		if err != nil {
			c.logger.Printf("WgerClient: lookup for %q failed: %v", ex.Name, err)
			continue
		}
		if len(lines) == 0 {
			continue
		}
		// Cues are spoken; more than two lines of instructions drags the
		// preparation phase out.
		if len(lines) > 2 {
			lines = lines[:2]
		}
		ex.Instructions = lines
	}
}

func (c *WgerClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// stripHTML removes markup from wger descriptions, which arrive as HTML
// paragraphs.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func splitSentences(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ". ") {
		part = strings.TrimSpace(strings.TrimSuffix(part, "."))
		if part == "" {
			continue
		}
		out = append(out, part+".")
	}
	return out
}
