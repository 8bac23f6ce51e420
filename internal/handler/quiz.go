package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"flashquiz/internal/audio"
	"flashquiz/internal/domain"
	"flashquiz/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	uploadPrompt     = "📂 Upload a CSV deck first. Columns: term, example, translation."
	narrationTimeout = 30 * time.Second
	historyLimit     = 50

	// Telegram rejects messages longer than 4096 characters
	maxMessageRunes = 4000
	maxFieldRunes   = 200
)

// sendQuestion renders the current question as a new message
func (h *Handler) sendQuestion(c tele.Context, userID int64, header string) error {
	q, err := h.quiz.CurrentQuestion(context.Background(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSession):
			return c.Send(uploadPrompt)
		case errors.Is(err, service.ErrEmptyDeck):
			return c.Send("⚠️ The deck has no words. Nothing to quiz.")
		}
		h.logger.Error("Failed to get question", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(failureText)
	}

	text, markup := renderQuestion(q)
	if header != "" {
		text = header + "\n\n" + text
	}
	return c.Send(text, markup)
}

// renderQuestion builds the question text and its keyboard
func renderQuestion(q *service.Question) (string, *tele.ReplyMarkup) {
	var b strings.Builder

	if q.RoundFinished {
		label := "Round"
		if q.ReviewFinished {
			label = "Review"
		}
		fmt.Fprintf(&b, "🏁 %s finished! Score so far: %d/%d correct (%d%%).\n\n",
			label, q.Stats.Correct, q.Stats.Total, q.Stats.Accuracy())
	}

	mode := "📖 Word"
	if q.Reviewing {
		mode = "🔁 Review"
	}
	fmt.Fprintf(&b, "%s %d/%d\n\n", mode, q.Position, q.Total)
	b.WriteString(q.Word.Term)
	b.WriteString("\n")
	if q.Word.Example != "" {
		fmt.Fprintf(&b, "💬 %s\n", q.Word.Example)
	}
	b.WriteString("\nChoose the translation:")

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(q.Options)+2)
	for i, option := range q.Options {
		rows = append(rows, markup.Row(markup.Data(option, answerData(q.Seq, i))))
	}
	rows = append(rows,
		markup.Row(btnPlay),
		markup.Row(btnHistory, btnReview),
	)
	markup.Inline(rows...)

	return b.String(), markup
}

// renderFeedback shows how an answer was scored
func renderFeedback(res *service.AnswerResult) string {
	if res.Correct {
		return fmt.Sprintf("%s\n\n✅ Correct! %s", res.Word.Term, res.Word.Translation)
	}
	return fmt.Sprintf("%s\n\n❌ Wrong: %s\nCorrect answer: %s", res.Word.Term, res.Chosen, res.Word.Translation)
}

// renderHistory lists the latest attempts, oldest first, with totals.
// Older lines are dropped until the text fits in one Telegram message.
func renderHistory(records []domain.AttemptRecord, stats domain.Stats) string {
	if len(records) == 0 {
		return "📜 No answers yet."
	}

	header := fmt.Sprintf("📜 History: %d answers, %d correct, %d wrong (%d%%)\n\n",
		stats.Total, stats.Correct, stats.Incorrect, stats.Accuracy())

	start := 0
	if len(records) > historyLimit {
		start = len(records) - historyLimit
	}

	lines := make([]string, 0, len(records)-start)
	for i, r := range records[start:] {
		lines = append(lines, historyLine(start+i+1, r))
	}

	// Room for the "Showing the last N." note
	budget := maxMessageRunes - utf8.RuneCountInString(header) - 32
	first := len(lines)
	for size := 0; first > 0; first-- {
		n := utf8.RuneCountInString(lines[first-1])
		if size+n > budget {
			break
		}
		size += n
	}
	shown := lines[first:]

	var b strings.Builder
	b.WriteString(header)
	if len(shown) < len(records) {
		fmt.Fprintf(&b, "Showing the last %d.\n\n", len(shown))
	}
	for _, line := range shown {
		b.WriteString(line)
	}

	return b.String()
}

func historyLine(n int, r domain.AttemptRecord) string {
	term, correct := clip(r.Term), clip(r.CorrectAnswer)
	if r.Outcome == domain.OutcomeCorrect {
		return fmt.Sprintf("%d. ✅ %s → %s\n", n, term, correct)
	}
	return fmt.Sprintf("%d. ❌ %s → %s (chose %s)\n", n, term, correct, clip(r.UserAnswer))
}

// clip shortens s to maxFieldRunes runes
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxFieldRunes {
		return s
	}
	return string([]rune(s)[:maxFieldRunes-1]) + "…"
}

// notify answers a button press with an alert and a command with a message
func notify(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}

// ack acknowledges a button press, if there was one
func ack(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond()
	}
	return nil
}

// handleAnswer scores an answer button and shows the next question
func (h *Handler) handleAnswer(c tele.Context, seq, index int) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	res, err := h.quiz.Answer(context.Background(), userID, seq, index)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaleQuestion), errors.Is(err, service.ErrInvalidOption):
			return c.Respond(&tele.CallbackResponse{Text: "This question was already answered."})
		case errors.Is(err, service.ErrNoSession):
			return notify(c, uploadPrompt)
		}
		h.logger.Error("Failed to record answer", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: failureText})
	}

	if err := h.editOrSend(c, userID, renderFeedback(res)); err != nil {
		return err
	}
	return h.sendQuestion(c, userID, "")
}

// handleNext shows the current question again
func (h *Handler) handleNext(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	if err := h.sendQuestion(c, userID, ""); err != nil {
		return err
	}
	return ack(c)
}

// handlePlay narrates the term currently on screen
func (h *Handler) handlePlay(c tele.Context) error {
	userID := c.Sender().ID

	if !h.narrator.Enabled() {
		return notify(c, "🔇 Audio is not configured.")
	}

	// The lock covers only the read; synthesis never touches the session
	unlock := h.lockUser(userID)
	term, err := h.quiz.CurrentTerm(context.Background(), userID)
	unlock()
	if err != nil {
		if errors.Is(err, service.ErrStaleQuestion) || errors.Is(err, service.ErrNoSession) {
			return notify(c, "No question on screen.")
		}
		h.logger.Error("Failed to get current term", zap.Error(err), zap.Int64("user_id", userID))
		return notify(c, failureText)
	}

	if err := ack(c); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}
	if err := c.Notify(tele.UploadingAudio); err != nil {
		h.logger.Debug("Failed to send chat action", zap.Error(err), zap.Int64("user_id", userID))
	}

	ctx, cancel := context.WithTimeout(context.Background(), narrationTimeout)
	defer cancel()

	err = h.narrator.Narrate(ctx, term, h.language, func(path string) error {
		return c.Send(&tele.Audio{
			File:     tele.FromDisk(path),
			FileName: term + ".mp3",
			Title:    term,
			MIME:     "audio/mpeg",
		})
	})
	if err != nil {
		h.logger.Warn("Narration failed",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("term", term),
		)
		if errors.Is(err, audio.ErrSynthesisUnavailable) {
			return c.Send("⚠️ Audio is temporarily unavailable, try again in a minute.")
		}
		return c.Send("⚠️ Could not play audio, try again later.")
	}
	return nil
}

// handleHistory shows the answers given so far
func (h *Handler) handleHistory(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	records, stats, err := h.quiz.History(context.Background(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return notify(c, uploadPrompt)
		}
		h.logger.Error("Failed to get history", zap.Error(err), zap.Int64("user_id", userID))
		return notify(c, failureText)
	}

	if err := c.Send(renderHistory(records, stats), continueMarkup()); err != nil {
		return err
	}
	return ack(c)
}

// handleReview switches to the missed words
func (h *Handler) handleReview(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	outcome, err := h.quiz.BeginReview(context.Background(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return notify(c, uploadPrompt)
		}
		h.logger.Error("Failed to start review", zap.Error(err), zap.Int64("user_id", userID))
		return notify(c, failureText)
	}

	switch outcome {
	case domain.ReviewNothingToReview:
		return notify(c, "🎉 Nothing to review, you have no missed words.")
	case domain.ReviewAlreadyActive:
		return notify(c, "🔁 A review is already running. Finish it first.")
	}

	if err := h.sendQuestion(c, userID, "🔁 Review of missed words started."); err != nil {
		return err
	}
	return ack(c)
}
