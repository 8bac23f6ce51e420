package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"flashquiz/internal/domain"
)

const keyPrefix = "quiz:session:"

// Client is the subset of *goredis.Client the repository needs
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// SessionRepo implements repository.SessionRepository on top of redis.
// Sessions expire by TTL, refreshed on every save.
type SessionRepo struct {
	rdb Client
	ttl time.Duration
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(rdb Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, ttl: ttl}
}

// Connect dials redis and verifies the connection
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func sessionKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Get loads the user's session
func (r *SessionRepo) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	state, err := r.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
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

// Save stores the session and refreshes its TTL
func (r *SessionRepo) Save(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now().UTC()

	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return r.rdb.Set(ctx, sessionKey(session.UserID), state, r.ttl).Err()
}

// Delete removes the user's session
func (r *SessionRepo) Delete(ctx context.Context, userID int64) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}

// DeleteStale is a no-op: redis expires idle sessions itself
func (r *SessionRepo) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}
