package audio

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNarrationDisabled is returned when no speech backend is configured
	ErrNarrationDisabled = errors.New("narration is not configured")
	// ErrEmptyText is returned for blank input
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrSynthesisUnavailable is returned while the circuit breaker is open
	ErrSynthesisUnavailable = errors.New("speech synthesis temporarily unavailable")
)

// Synthesizer turns text into MP3 audio
type Synthesizer interface {
	// Synthesize writes MP3 audio for text spoken in lang to w
	Synthesize(ctx context.Context, text, lang string, w io.Writer) error

	// Name returns the backend name
	Name() string
}

// Config holds speech synthesis settings
type Config struct {
	APIKey  string
	BaseURL string // empty means the public OpenAI endpoint
	Model   string // "tts-1", "tts-1-hd" or "gpt-4o-mini-tts"
	Voice   string
	Speed   float64 // 0.25 to 4.0

	// Breaker settings
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model:            "gpt-4o-mini-tts",
		Voice:            "alloy",
		Speed:            1.0,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}
