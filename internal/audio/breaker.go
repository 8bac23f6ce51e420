package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSynthesizer fails fast while the wrapped backend keeps failing
type BreakerSynthesizer struct {
	next Synthesizer
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSynthesizer wraps next with a circuit breaker that opens after
// config.FailureThreshold consecutive failures for config.OpenTimeout
func NewBreakerSynthesizer(next Synthesizer, config *Config, logger *zap.Logger) *BreakerSynthesizer {
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Bad input says nothing about the backend's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrEmptyText) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Speech synthesis breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerSynthesizer{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Synthesize buffers the audio so w only receives complete output
func (b *BreakerSynthesizer) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	var buf bytes.Buffer

	_, err := b.cb.Execute(func() (interface{}, error) {
		buf.Reset()
		return nil, b.next.Synthesize(ctx, text, lang, &buf)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrSynthesisUnavailable, err)
	}
	if err != nil {
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}

// Name returns the wrapped backend name
func (b *BreakerSynthesizer) Name() string {
	return b.next.Name()
}
