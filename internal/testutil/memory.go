package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flashquiz/internal/domain"
)

// MemorySessionRepository keeps sessions in a map.
// Sessions are stored encoded so callers never share state with the store.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[int64][]byte
}

// NewMemorySessionRepository creates an empty in-memory repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[int64][]byte)}
}

func (r *MemorySessionRepository) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	r.sessions[session.UserID] = raw
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, userID)
	return nil
}

func (r *MemorySessionRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}
