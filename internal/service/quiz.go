package service

import (
	"context"
	"fmt"
	"time"

	"flashquiz/internal/domain"
	"flashquiz/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Question is what the user sees next
type Question struct {
	Word      domain.WordRecord
	Options   []string
	Seq       int
	Position  int
	Total     int
	Reviewing bool

	// RoundFinished is set when the previous pass through the deck just ended
	RoundFinished  bool
	ReviewFinished bool
	Stats          domain.Stats
}

// AnswerResult describes a scored answer
type AnswerResult struct {
	Word    domain.WordRecord
	Chosen  string
	Correct bool
}

// QuizService runs the quiz state machine against the session store.
// Every call loads the session, mutates it and saves it back.
type QuizService struct {
	sessionRepo repository.SessionRepository
	options     *OptionGenerator
	logger      *zap.Logger
	newDeckID   func() string
}

// NewQuizService creates a new quiz service
func NewQuizService(sessionRepo repository.SessionRepository, options *OptionGenerator, logger *zap.Logger) *QuizService {
	return &QuizService{
		sessionRepo: sessionRepo,
		options:     options,
		logger:      logger,
		newDeckID:   uuid.NewString,
	}
}

// StartDeck replaces the user's session with a fresh one for words
func (s *QuizService) StartDeck(ctx context.Context, userID int64, sourceName string, words []domain.WordRecord) (*domain.Session, error) {
	if len(words) == 0 {
		return nil, ErrEmptyDeck
	}

	session := domain.NewSession(userID, s.newDeckID(), sourceName, words, time.Now().UTC())
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	s.logger.Info("Deck loaded",
		zap.Int64("user_id", userID),
		zap.String("deck_id", session.DeckID),
		zap.String("source", sourceName),
		zap.Int("words", len(words)),
	)

	return session, nil
}

// CurrentQuestion returns the word at the cursor with fresh answer options.
// When the deck was exhausted it rewinds and reports RoundFinished.
func (s *QuizService) CurrentQuestion(ctx context.Context, userID int64) (*Question, error) {
	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := &Question{}
	wasReviewing := session.Reviewing

	word := session.Current()
	if word == nil {
		if len(session.Words) == 0 {
			return nil, ErrEmptyDeck
		}
		q.RoundFinished = true
		q.ReviewFinished = wasReviewing
		q.Stats = session.Stats()

		word = session.Current()
		if word == nil {
			return nil, ErrEmptyDeck
		}
	}

	session.QuestionSeq++
	session.Options = s.options.Options(*word, session.Words)

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	q.Word = *word
	q.Options = session.Options
	q.Seq = session.QuestionSeq
	q.Position = session.Cursor + 1
	q.Total = len(session.Words)
	q.Reviewing = session.Reviewing

	return q, nil
}

// Answer scores the option the user picked for question seq and advances
func (s *QuizService) Answer(ctx context.Context, userID int64, seq, optionIndex int) (*AnswerResult, error) {
	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if seq != session.QuestionSeq || len(session.Options) == 0 {
		return nil, ErrStaleQuestion
	}
	if optionIndex < 0 || optionIndex >= len(session.Options) {
		return nil, ErrInvalidOption
	}

	word := session.Peek()
	if word == nil {
		return nil, ErrStaleQuestion
	}

	chosen := session.Options[optionIndex]
	correct := session.RecordAttempt(*word, chosen)
	session.Advance()
	session.Options = nil

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("Answer recorded",
		zap.Int64("user_id", userID),
		zap.String("term", word.Term),
		zap.Bool("correct", correct),
	)

	return &AnswerResult{Word: *word, Chosen: chosen, Correct: correct}, nil
}

// BeginReview switches the user's deck to the words they missed
func (s *QuizService) BeginReview(ctx context.Context, userID int64) (domain.ReviewOutcome, error) {
	session, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}

	missed := len(session.Missed)
	outcome := session.BeginReview()
	if outcome != domain.ReviewStarted {
		return outcome, nil
	}

	session.Options = nil
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Review started", zap.Int64("user_id", userID), zap.Int("words", missed))
	return outcome, nil
}

// History returns the answers given so far, oldest first
func (s *QuizService) History(ctx context.Context, userID int64) ([]domain.AttemptRecord, domain.Stats, error) {
	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, domain.Stats{}, err
	}
	return session.History, session.Stats(), nil
}

// CurrentTerm returns the term of the question on screen
func (s *QuizService) CurrentTerm(ctx context.Context, userID int64) (string, error) {
	session, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}

	word := session.Peek()
	if word == nil {
		return "", ErrStaleQuestion
	}
	return word.Term, nil
}

// HasSession reports whether the user has uploaded a deck
func (s *QuizService) HasSession(ctx context.Context, userID int64) (bool, error) {
	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// Reset forgets the user's session
func (s *QuizService) Reset(ctx context.Context, userID int64) error {
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Session reset", zap.Int64("user_id", userID))
	return nil
}

func (s *QuizService) load(ctx context.Context, userID int64) (*domain.Session, error) {
	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}
