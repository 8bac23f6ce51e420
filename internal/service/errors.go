package service

import "errors"

var (
	// ErrNoSession means the user has not uploaded a deck yet
	ErrNoSession = errors.New("no quiz session")
	// ErrEmptyDeck means the session has no words to ask
	ErrEmptyDeck = errors.New("deck has no words")
	// ErrStaleQuestion means the answered question is no longer on screen
	ErrStaleQuestion = errors.New("question already answered")
	// ErrInvalidOption means the answer index does not match any button
	ErrInvalidOption = errors.New("invalid answer option")
)
