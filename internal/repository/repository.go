package repository

import (
	"context"
	"time"

	"flashquiz/internal/domain"
)

// SessionRepository persists one quiz session per user
type SessionRepository interface {
	// Get returns nil, nil when the user has no session
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, userID int64) error
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
