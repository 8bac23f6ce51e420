package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"flashquiz/internal/domain"
)

// SessionRepo implements repository.SessionRepository
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Get loads the user's session
func (r *SessionRepo) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	var state []byte
	query := `SELECT state FROM quiz_sessions WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&state)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(state, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session of user %d: %w", userID, err)
	}

	return &session, nil
}

// Save inserts or replaces the user's session
func (r *SessionRepo) Save(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now().UTC()

	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		INSERT INTO quiz_sessions (user_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, session.UserID, state, session.UpdatedAt)
	return err
}

// Delete removes the user's session
func (r *SessionRepo) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM quiz_sessions WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteStale removes sessions not touched within olderThan
func (r *SessionRepo) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM quiz_sessions
		WHERE updated_at < NOW() - INTERVAL '1 second' * $1
	`
	res, err := r.db.ExecContext(ctx, query, int64(olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
