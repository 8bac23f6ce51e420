package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const answerPrefix = "ans_"

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// answerData builds the callback data of an answer button
func answerData(seq, index int) string {
	return fmt.Sprintf("%s%d_%d", answerPrefix, seq, index)
}

// parseAnswerData extracts question seq and option index from ans_<seq>_<idx>
func parseAnswerData(data string) (seq, index int, err error) {
	rest, ok := strings.CutPrefix(data, answerPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("not an answer: %q", data)
	}

	seqStr, indexStr, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("malformed answer: %q", data)
	}

	seq, err = strconv.Atoi(seqStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed answer seq: %w", err)
	}
	index, err = strconv.Atoi(indexStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed answer index: %w", err)
	}
	return seq, index, nil
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Another callback already edited this message
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// editOrSend replaces the pressed message, or sends a new one for commands
func (h *Handler) editOrSend(c tele.Context, userID int64, text string, opts ...interface{}) error {
	if c.Callback() == nil {
		return c.Send(text, opts...)
	}
	if err := c.Edit(text, opts...); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send(text, opts...)
	}
	return c.Respond()
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	// Static buttons whose Unique didn't come through
	switch data {
	case btnPlay.Unique:
		return h.handlePlay(c)
	case btnHistory.Unique:
		return h.handleHistory(c)
	case btnReview.Unique:
		return h.handleReview(c)
	case btnNext.Unique:
		return h.handleNext(c)
	}

	// Answer buttons are dynamic
	if strings.HasPrefix(data, answerPrefix) {
		seq, index, err := parseAnswerData(data)
		if err != nil {
			h.logger.Warn("Bad answer callback", zap.String("data", data), zap.Error(err))
			return c.Respond()
		}
		return h.handleAnswer(c, seq, index)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}
