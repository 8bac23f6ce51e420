package service

import (
	"context"
	"time"

	"flashquiz/internal/repository"

	"go.uber.org/zap"
)

// CleanupService removes sessions nobody has touched for a while
type CleanupService struct {
	sessionRepo repository.SessionRepository
	retention   time.Duration
	logger      *zap.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(sessionRepo repository.SessionRepository, retention time.Duration, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		sessionRepo: sessionRepo,
		retention:   retention,
		logger:      logger,
	}
}

// CleanupStaleSessions deletes sessions idle longer than the retention period
func (s *CleanupService) CleanupStaleSessions(ctx context.Context) error {
	s.logger.Info("Starting cleanup of stale sessions", zap.Duration("retention", s.retention))

	deleted, err := s.sessionRepo.DeleteStale(ctx, s.retention)
	if err != nil {
		s.logger.Error("Failed to cleanup stale sessions", zap.Error(err))
		return err
	}

	s.logger.Info("Cleanup completed successfully", zap.Int64("deleted", deleted))
	return nil
}
