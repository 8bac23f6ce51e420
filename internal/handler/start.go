package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const greetingText = `👋 Hi! I quiz you on vocabulary from your own CSV file.

Send me a .csv document with a header row and three columns:
英単語 (term), 例文 (example), 日本語訳 (translation).

Commands:
/history - your answers so far
/review - drill the words you missed
/reset - forget the current deck`

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	if err := c.Send(greetingText); err != nil {
		return err
	}

	unlock := h.lockUser(userID)
	defer unlock()

	ok, err := h.quiz.HasSession(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to check session", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(failureText)
	}
	if !ok {
		return nil
	}

	return h.sendQuestion(c, userID, "")
}

// handleReset handles /reset command
func (h *Handler) handleReset(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	if err := h.quiz.Reset(context.Background(), userID); err != nil {
		h.logger.Error("Failed to reset session", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(failureText)
	}

	return c.Send("🗑 Deck forgotten. Send a new CSV file to start again.")
}
