package domain

import "time"

// Outcome is the result of a single answer
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// AttemptRecord is one entry of the answer history
type AttemptRecord struct {
	Term          string    `json:"term"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	Outcome       Outcome   `json:"outcome"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// Stats summarizes the answer history
type Stats struct {
	Total     int
	Correct   int
	Incorrect int
}

// Accuracy returns the share of correct answers in percent
func (s Stats) Accuracy() int {
	if s.Total == 0 {
		return 0
	}
	return s.Correct * 100 / s.Total
}
