package testutil

import (
	"context"
	"io"
	"time"

	"flashquiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock for SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockSynthesizer is a mock for audio.Synthesizer.
// Audio, when set, is written to the destination before returning.
type MockSynthesizer struct {
	mock.Mock
	Audio []byte
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	args := m.Called(ctx, text, lang)
	if len(m.Audio) > 0 {
		if _, err := w.Write(m.Audio); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockSynthesizer) Name() string {
	return "mock"
}
