package audio

import (
	"context"
	"sync"
	"time"
)

// MockPlayer is a scripted Player for tests. Each Play blocks for PlayTime
// (paused time excluded), honoring ctx and Stop like the real device.
type MockPlayer struct {
	PlayTime time.Duration

	mu       sync.Mutex
	playing  int
	maxConc  int
	played   [][]byte
	paused   bool
	pauseCh  chan struct{}
	resumeCh chan struct{}
	stop     chan struct{}
}

// NewMockPlayer creates a mock that "plays" each clip for playTime.
func NewMockPlayer(playTime time.Duration) *MockPlayer {
	return &MockPlayer{PlayTime: playTime}
}

// Play implements Player.
func (m *MockPlayer) Play(ctx context.Context, pcm []byte) error {
	m.mu.Lock()
	m.playing++
	if m.playing > m.maxConc {
		m.maxConc = m.playing
	}
	m.played = append(m.played, pcm)
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.playing--
		m.stop = nil
		m.mu.Unlock()
	}()

	remaining := m.PlayTime
	for remaining > 0 {
		start := time.Now()
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-stop:
			timer.Stop()
			return nil
		case <-m.pauseSignal():
			timer.Stop()
			remaining -= time.Since(start)
			select {
			case <-m.resumeSignal():
			case <-stop:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-timer.C:
			remaining = 0
		}
	}
	return nil
}

func (m *MockPlayer) pauseSignal() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseCh == nil {
		m.pauseCh = make(chan struct{}, 1)
	}
	return m.pauseCh
}

func (m *MockPlayer) resumeSignal() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeCh == nil {
		m.resumeCh = make(chan struct{}, 1)
	}
	return m.resumeCh
}

// Pause implements Player.
func (m *MockPlayer) Pause() {
	m.mu.Lock()
	ch := m.pauseCh
	m.paused = true
	m.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Resume implements Player.
func (m *MockPlayer) Resume() {
	m.mu.Lock()
	ch := m.resumeCh
	m.paused = false
	m.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Stop implements Player.
func (m *MockPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.Stop()
	return nil
}

// PlayedCount returns how many clips have been played (or started).
func (m *MockPlayer) PlayedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.played)
}

// MaxConcurrent returns the peak number of simultaneous Play calls observed.
func (m *MockPlayer) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConc
}
