package handler

import (
	"io"
	"sync"

	"flashquiz/internal/audio"
	"flashquiz/internal/middleware"
	"flashquiz/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const failureText = "Something went wrong, try again."

// Handler manages all bot interactions
type Handler struct {
	bot       *tele.Bot
	quiz      *service.QuizService
	narrator  *audio.Narrator
	logger    *zap.Logger
	maxUpload int64
	language  string

	// download fetches an uploaded file from Telegram
	download func(file *tele.File) (io.ReadCloser, error)

	// Per-user locks so one user's updates never interleave.
	// An entry lives only while some update of that user holds or waits on it.
	userLocks map[int64]*userLock
	lockMux   sync.Mutex
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	quiz *service.QuizService,
	narrator *audio.Narrator,
	logger *zap.Logger,
	maxUpload int64,
	language string,
) *Handler {
	h := &Handler{
		bot:       bot,
		quiz:      quiz,
		narrator:  narrator,
		logger:    logger,
		maxUpload: maxUpload,
		language:  language,
		userLocks: make(map[int64]*userLock),
	}
	if bot != nil {
		h.download = bot.File
	}
	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Open to everyone
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/reset", h.handleReset)
	h.bot.Handle(tele.OnDocument, h.handleDocument)

	// Need an uploaded deck
	quiz := h.bot.Group()
	quiz.Use(middleware.RequireSession(h.quiz, h.logger))

	quiz.Handle("/history", h.handleHistory)
	quiz.Handle("/review", h.handleReview)
	quiz.Handle(&btnPlay, h.handlePlay)
	quiz.Handle(&btnHistory, h.handleHistory)
	quiz.Handle(&btnReview, h.handleReview)
	quiz.Handle(&btnNext, h.handleNext)

	// Generic callback handler for dynamic data
	quiz.Handle(tele.OnCallback, h.handleCallback)
}

// lockUser serializes interactions of one user and returns the unlock func
func (h *Handler) lockUser(userID int64) func() {
	h.lockMux.Lock()
	lock, exists := h.userLocks[userID]
	if !exists {
		lock = &userLock{}
		h.userLocks[userID] = lock
	}
	lock.refs++
	h.lockMux.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		h.lockMux.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(h.userLocks, userID)
		}
		h.lockMux.Unlock()
	}
}

// Inline keyboard buttons
var (
	btnPlay = tele.Btn{
		Unique: "play",
		Text:   "🔊 Play audio",
	}
	btnHistory = tele.Btn{
		Unique: "history",
		Text:   "📜 History",
	}
	btnReview = tele.Btn{
		Unique: "review",
		Text:   "🔁 Review missed",
	}
	btnNext = tele.Btn{
		Unique: "next",
		Text:   "▶️ Continue",
	}
)

// continueMarkup returns a keyboard that brings the question back
func continueMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnNext),
	)
	return menu
}
