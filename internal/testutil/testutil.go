package testutil

import (
	"time"

	"flashquiz/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestWords returns the four-animal deck used across tests
func NewTestWords() []domain.WordRecord {
	return []domain.WordRecord{
		{Term: "cat", Example: "The cat sleeps.", Translation: "ねこ"},
		{Term: "dog", Example: "The dog barks.", Translation: "いぬ"},
		{Term: "bird", Example: "The bird sings.", Translation: "とり"},
		{Term: "fish", Example: "The fish swims.", Translation: "さかな"},
	}
}

// NewTestSession creates a session for userID over words
func NewTestSession(userID int64, words []domain.WordRecord) *domain.Session {
	return domain.NewSession(userID, "test-deck", "words.csv", words, time.Now())
}
