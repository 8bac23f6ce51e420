package domain

import "time"

// ReviewOutcome reports what BeginReview did
type ReviewOutcome string

const (
	ReviewStarted         ReviewOutcome = "review_started"
	ReviewNothingToReview ReviewOutcome = "nothing_to_review"
	ReviewAlreadyActive   ReviewOutcome = "already_reviewing"
)

// Session holds everything a user's quiz needs between interactions.
// Words is the active deck; Original is what it returns to after a review.
type Session struct {
	UserID     int64  `json:"user_id"`
	DeckID     string `json:"deck_id"`
	SourceName string `json:"source_name"`

	Original  []WordRecord `json:"original"`
	Words     []WordRecord `json:"words"`
	Cursor    int          `json:"cursor"`
	Reviewing bool         `json:"reviewing"`

	History []AttemptRecord `json:"history"`
	Missed  []WordRecord    `json:"missed"`

	// QuestionSeq identifies the question currently on screen, Options its buttons
	QuestionSeq int      `json:"question_seq"`
	Options     []string `json:"options"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session for a freshly uploaded deck
func NewSession(userID int64, deckID, sourceName string, words []WordRecord, now time.Time) *Session {
	return &Session{
		UserID:     userID,
		DeckID:     deckID,
		SourceName: sourceName,
		Original:   cloneWords(words),
		Words:      cloneWords(words),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Current returns the word at the cursor.
// When the deck is exhausted it leaves review mode if needed, rewinds the
// cursor and returns nil; the next call yields the first word.
func (s *Session) Current() *WordRecord {
	if len(s.Words) == 0 {
		return nil
	}

	if s.Cursor >= len(s.Words) {
		if s.Reviewing {
			s.Words = cloneWords(s.Original)
			s.Reviewing = false
		}
		s.Cursor = 0
		return nil
	}

	word := s.Words[s.Cursor]
	return &word
}

// Peek returns the word at the cursor without the end-of-deck handling
func (s *Session) Peek() *WordRecord {
	if s.Cursor < 0 || s.Cursor >= len(s.Words) {
		return nil
	}
	word := s.Words[s.Cursor]
	return &word
}

// Advance moves the cursor to the next word
func (s *Session) Advance() {
	if s.Cursor < len(s.Words) {
		s.Cursor++
	}
}

// RecordAttempt scores an answer and appends it to the history.
// Wrong answers also land in the missed set.
func (s *Session) RecordAttempt(word WordRecord, chosen string) bool {
	correct := chosen == word.Translation

	outcome := OutcomeIncorrect
	if correct {
		outcome = OutcomeCorrect
	}

	s.History = append(s.History, AttemptRecord{
		Term:          word.Term,
		UserAnswer:    chosen,
		CorrectAnswer: word.Translation,
		Outcome:       outcome,
		AnsweredAt:    time.Now().UTC(),
	})

	if !correct {
		s.Missed = append(s.Missed, word)
	}

	return correct
}

// BeginReview swaps the active deck for the missed words.
// Starting a review while one is running is refused so the
// pre-review deck is never overwritten.
func (s *Session) BeginReview() ReviewOutcome {
	if len(s.Missed) == 0 {
		return ReviewNothingToReview
	}
	if s.Reviewing {
		return ReviewAlreadyActive
	}

	s.Original = cloneWords(s.Words)
	s.Words = s.Missed
	s.Missed = nil
	s.Reviewing = true
	s.Cursor = 0

	return ReviewStarted
}

// Stats counts the history by outcome
func (s *Session) Stats() Stats {
	var st Stats
	for _, a := range s.History {
		st.Total++
		if a.Outcome == OutcomeCorrect {
			st.Correct++
		} else {
			st.Incorrect++
		}
	}
	return st
}
