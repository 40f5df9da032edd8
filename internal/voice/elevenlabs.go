package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	elevenLabsEndpoint     = "https://api.elevenlabs.io/v1"
	ElevenLabsDefaultVoice = "21m00Tcm4TlvDq8ikWAM" // Rachel - calm, natural
)

// ElevenLabsConfig configures the hosted synthesizer.
type ElevenLabsConfig struct {
	APIKey     string
	VoiceID    string
	ModelID    string
	Stability  float64
	Similarity float64
	BaseURL    string // overridable for tests
}

// DefaultElevenLabsConfig returns sensible voice settings for short,
// energetic trainer cues.
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		VoiceID:    ElevenLabsDefaultVoice,
		ModelID:    "eleven_monolingual_v1",
		Stability:  0.5,
		Similarity: 0.75,
		BaseURL:    elevenLabsEndpoint,
	}
}

// ElevenLabs synthesizes speech via the ElevenLabs HTTP API, requesting raw
// PCM at the package sample rate so no decoding is needed before playback.
type ElevenLabs struct {
	config ElevenLabsConfig
	client *http.Client
	logger *log.Logger
}

// NewElevenLabs creates an ElevenLabs synthesizer.
func NewElevenLabs(config ElevenLabsConfig, logger *log.Logger) *ElevenLabs {
	if logger == nil {
		panic("ElevenLabs: logger cannot be nil")
	}
	if config.VoiceID == "" {
		config.VoiceID = ElevenLabsDefaultVoice
	}
	if config.ModelID == "" {
		config.ModelID = "eleven_monolingual_v1"
	}
	if config.BaseURL == "" {
		config.BaseURL = elevenLabsEndpoint
	}
	return &ElevenLabs{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Name implements Synthesizer.
func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Synthesize implements Synthesizer.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if e.config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not set", ErrUnauthorized)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	payload := map[string]any{
		"text":     text,
		"model_id": e.config.ModelID,
		"voice_settings": map[string]float64{
			"stability":        e.config.Stability,
			"similarity_boost": e.config.Similarity,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrInvalidInput, err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_%d",
		e.config.BaseURL, e.config.VoiceID, SampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.config.APIKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidInput, resp.StatusCode, msg)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	e.logger.Printf("ElevenLabs: synthesized %d bytes in %v (%q)", len(audio), time.Since(start).Round(time.Millisecond), text)
	return audio, nil
}
