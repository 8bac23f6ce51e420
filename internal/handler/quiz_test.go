package handler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"flashquiz/internal/domain"
	"flashquiz/internal/service"
	"flashquiz/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func startTestDeck(t *testing.T, h *Handler, quiz *service.QuizService) *fakeContext {
	t.Helper()
	_, err := quiz.StartDeck(context.Background(), testUserID, "animals.csv", testutil.NewTestWords())
	require.NoError(t, err)

	c := newCommandContext(testUserID)
	require.NoError(t, h.handleNext(c))
	require.Len(t, c.sent, 1)
	return c
}

// press answers the question on screen by clicking the option labelled text
func press(t *testing.T, h *Handler, question sentMessage, text string) *fakeContext {
	t.Helper()
	data := buttonData(question.markup(), text)
	require.NotEmpty(t, data, "no button %q", text)

	c := newCallbackContext(testUserID, data)
	require.NoError(t, h.handleCallback(c))
	return c
}

// wrongOption returns any option of the question except correct
func wrongOption(t *testing.T, question sentMessage, correct string) string {
	t.Helper()
	for _, row := range question.markup().InlineKeyboard {
		for _, btn := range row {
			if strings.HasPrefix(btn.Unique, answerPrefix) && btn.Text != correct {
				return btn.Text
			}
		}
	}
	t.Fatal("question has no wrong option")
	return ""
}

func TestRenderQuestion(t *testing.T) {
	q := &service.Question{
		Word:     domain.WordRecord{Term: "cat", Example: "The cat sleeps.", Translation: "ねこ"},
		Options:  []string{"いぬ", "ねこ", "とり"},
		Seq:      5,
		Position: 1,
		Total:    4,
	}

	text, markup := renderQuestion(q)

	assert.Contains(t, text, "📖 Word 1/4")
	assert.Contains(t, text, "cat")
	assert.Contains(t, text, "💬 The cat sleeps.")
	assert.NotContains(t, text, "finished")

	require.Len(t, markup.InlineKeyboard, 5)
	for i, option := range q.Options {
		assert.Equal(t, option, markup.InlineKeyboard[i][0].Text)
		assert.Equal(t, fmt.Sprintf("ans_5_%d", i), markup.InlineKeyboard[i][0].Unique)
	}
	assert.Equal(t, btnPlay.Unique, markup.InlineKeyboard[3][0].Unique)
	assert.Equal(t, btnHistory.Unique, markup.InlineKeyboard[4][0].Unique)
	assert.Equal(t, btnReview.Unique, markup.InlineKeyboard[4][1].Unique)
}

func TestRenderQuestion_Banners(t *testing.T) {
	tests := []struct {
		name     string
		question service.Question
		contains []string
	}{
		{
			name: "review mode without example",
			question: service.Question{
				Word:      domain.WordRecord{Term: "dog", Translation: "いぬ"},
				Position:  1,
				Total:     2,
				Reviewing: true,
			},
			contains: []string{"🔁 Review 1/2", "dog"},
		},
		{
			name: "round finished",
			question: service.Question{
				Word:          domain.WordRecord{Term: "cat", Translation: "ねこ"},
				Position:      1,
				Total:         4,
				RoundFinished: true,
				Stats:         domain.Stats{Total: 4, Correct: 3, Incorrect: 1},
			},
			contains: []string{"🏁 Round finished! Score so far: 3/4 correct (75%).", "📖 Word 1/4"},
		},
		{
			name: "review finished",
			question: service.Question{
				Word:           domain.WordRecord{Term: "cat", Translation: "ねこ"},
				Position:       1,
				Total:          4,
				RoundFinished:  true,
				ReviewFinished: true,
				Stats:          domain.Stats{Total: 5, Correct: 4, Incorrect: 1},
			},
			contains: []string{"🏁 Review finished!", "📖 Word 1/4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, _ := renderQuestion(&tt.question)

			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			assert.NotContains(t, text, "💬")
		})
	}
}

func TestRenderHistory(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "📜 No answers yet.", renderHistory(nil, domain.Stats{}))
	})

	t.Run("in order", func(t *testing.T) {
		records := []domain.AttemptRecord{
			{Term: "cat", UserAnswer: "ねこ", CorrectAnswer: "ねこ", Outcome: domain.OutcomeCorrect, AnsweredAt: at},
			{Term: "dog", UserAnswer: "とり", CorrectAnswer: "いぬ", Outcome: domain.OutcomeIncorrect, AnsweredAt: at},
		}

		text := renderHistory(records, domain.Stats{Total: 2, Correct: 1, Incorrect: 1})

		assert.Contains(t, text, "2 answers, 1 correct, 1 wrong (50%)")
		assert.Contains(t, text, "1. ✅ cat → ねこ\n2. ❌ dog → いぬ (chose とり)\n")
	})

	t.Run("long history keeps the latest", func(t *testing.T) {
		records := make([]domain.AttemptRecord, 0, 60)
		for i := 0; i < 60; i++ {
			records = append(records, domain.AttemptRecord{
				Term:          fmt.Sprintf("w%d", i),
				UserAnswer:    "x",
				CorrectAnswer: "x",
				Outcome:       domain.OutcomeCorrect,
			})
		}

		text := renderHistory(records, domain.Stats{Total: 60, Correct: 60})

		assert.Contains(t, text, "Showing the last 50.")
		assert.NotContains(t, text, "10. ✅ w9 ")
		assert.Contains(t, text, "11. ✅ w10 → x")
		assert.Contains(t, text, "60. ✅ w59 → x")
	})
}

func TestRenderHistory_FitsOneMessage(t *testing.T) {
	long := strings.Repeat("長", 300)
	records := make([]domain.AttemptRecord, 0, historyLimit)
	for i := 0; i < historyLimit; i++ {
		records = append(records, domain.AttemptRecord{
			Term:          fmt.Sprintf("w%d %s", i, long),
			UserAnswer:    long,
			CorrectAnswer: long,
			Outcome:       domain.OutcomeIncorrect,
		})
	}

	text := renderHistory(records, domain.Stats{Total: historyLimit, Incorrect: historyLimit})

	assert.LessOrEqual(t, utf8.RuneCountInString(text), 4096)
	assert.Contains(t, text, "Showing the last ")
	assert.Contains(t, text, fmt.Sprintf("%d. ❌ w%d ", historyLimit, historyLimit-1))
	assert.NotContains(t, text, "1. ❌ w0 ")
	assert.Contains(t, text, "…")
}

func TestRenderFeedback(t *testing.T) {
	word := domain.WordRecord{Term: "cat", Translation: "ねこ"}

	assert.Equal(t, "cat\n\n✅ Correct! ねこ",
		renderFeedback(&service.AnswerResult{Word: word, Chosen: "ねこ", Correct: true}))
	assert.Equal(t, "cat\n\n❌ Wrong: いぬ\nCorrect answer: ねこ",
		renderFeedback(&service.AnswerResult{Word: word, Chosen: "いぬ", Correct: false}))
}

func TestHandleAnswer_CorrectThenStale(t *testing.T) {
	h, quiz := newTestHandler(t, nil)
	question := startTestDeck(t, h, quiz).lastSent()
	assert.Contains(t, question.text(), "📖 Word 1/4")

	c := press(t, h, question, "ねこ")

	require.Len(t, c.edits, 1)
	assert.Equal(t, "cat\n\n✅ Correct! ねこ", c.edits[0])
	assert.Equal(t, 1, c.acks)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].text(), "📖 Word 2/4")
	assert.Contains(t, c.sent[0].text(), "dog")

	// The old keyboard is still in the chat
	stale := press(t, h, question, "ねこ")

	assert.Empty(t, stale.edits)
	assert.Empty(t, stale.sent)
	require.Len(t, stale.responses, 1)
	assert.Equal(t, "This question was already answered.", stale.responses[0].Text)
}

func TestHandleAnswer_WrongThenReview(t *testing.T) {
	h, quiz := newTestHandler(t, nil)
	question := startTestDeck(t, h, quiz).lastSent()

	wrong := wrongOption(t, question, "ねこ")
	c := press(t, h, question, wrong)

	require.Len(t, c.edits, 1)
	assert.Equal(t, fmt.Sprintf("cat\n\n❌ Wrong: %s\nCorrect answer: ねこ", wrong), c.edits[0])
	assert.Contains(t, c.lastSent().text(), "📖 Word 2/4")

	review := newCommandContext(testUserID)
	require.NoError(t, h.handleReview(review))

	require.Len(t, review.sent, 1)
	text := review.sent[0].text()
	assert.Contains(t, text, "🔁 Review of missed words started.")
	assert.Contains(t, text, "🔁 Review 1/1")
	assert.Contains(t, text, "cat")

	// The missed set was moved into the review deck
	again := newCommandContext(testUserID)
	require.NoError(t, h.handleReview(again))
	require.Len(t, again.sent, 1)
	assert.Equal(t, "🎉 Nothing to review, you have no missed words.", again.sent[0].text())

	// Finishing the review restores the full deck
	done := press(t, h, review.sent[0], "ねこ")
	assert.Contains(t, done.lastSent().text(), "🏁 Review finished!")
	assert.Contains(t, done.lastSent().text(), "📖 Word 1/4")
}

func TestHandleReview_NothingToReview(t *testing.T) {
	h, quiz := newTestHandler(t, nil)
	startTestDeck(t, h, quiz)

	c := newCallbackContext(testUserID, "\freview")
	require.NoError(t, h.handleCallback(c))

	assert.Empty(t, c.sent)
	require.Len(t, c.responses, 1)
	assert.Equal(t, "🎉 Nothing to review, you have no missed words.", c.responses[0].Text)
	assert.True(t, c.responses[0].ShowAlert)
}

func TestHandleAnswer_FullRound(t *testing.T) {
	h, quiz := newTestHandler(t, nil)
	question := startTestDeck(t, h, quiz).lastSent()

	for _, translation := range []string{"ねこ", "いぬ", "とり", "さかな"} {
		c := press(t, h, question, translation)
		require.Len(t, c.edits, 1)
		assert.Contains(t, c.edits[0], "✅ Correct!")
		question = c.lastSent()
	}

	assert.Contains(t, question.text(), "🏁 Round finished! Score so far: 4/4 correct (100%).")
	assert.Contains(t, question.text(), "📖 Word 1/4")
	assert.Contains(t, question.text(), "cat")
}

func TestHandleHistory(t *testing.T) {
	h, quiz := newTestHandler(t, nil)
	question := startTestDeck(t, h, quiz).lastSent()
	press(t, h, question, "ねこ")

	c := newCallbackContext(testUserID, "\fhistory")
	require.NoError(t, h.handleCallback(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].text(), "1. ✅ cat → ねこ")
	assert.NotEmpty(t, buttonData(c.sent[0].markup(), btnNext.Text))
	assert.Equal(t, 1, c.acks)
}

func TestHandlePlay(t *testing.T) {
	synth := &testutil.MockSynthesizer{Audio: []byte("ID3-audio")}
	synth.On("Synthesize", mock.Anything, "cat", "en").Return(nil)

	h, quiz := newTestHandler(t, synth)
	startTestDeck(t, h, quiz)

	var audioPath string
	var audioBody []byte
	c := newCallbackContext(testUserID, "\fplay")
	c.onSend = func(what interface{}) error {
		if a, ok := what.(*tele.Audio); ok {
			audioPath = a.File.FileLocal
			audioBody, _ = os.ReadFile(audioPath)
		}
		return nil
	}

	require.NoError(t, h.handleCallback(c))

	require.Len(t, c.sent, 1)
	sent, ok := c.sent[0].what.(*tele.Audio)
	require.True(t, ok)
	assert.Equal(t, "cat", sent.Title)
	assert.Equal(t, "cat.mp3", sent.FileName)
	assert.Equal(t, "audio/mpeg", sent.MIME)
	assert.Equal(t, "ID3-audio", string(audioBody))
	assert.Equal(t, []tele.ChatAction{tele.UploadingAudio}, c.actions)
	assert.Equal(t, 1, c.acks)

	_, err := os.Stat(audioPath)
	assert.True(t, os.IsNotExist(err))
	synth.AssertExpectations(t)
}

func TestHandlePlay_Failures(t *testing.T) {
	t.Run("synthesis error", func(t *testing.T) {
		synth := &testutil.MockSynthesizer{}
		synth.On("Synthesize", mock.Anything, "cat", "en").Return(fmt.Errorf("api down"))

		h, quiz := newTestHandler(t, synth)
		startTestDeck(t, h, quiz)

		c := newCallbackContext(testUserID, "\fplay")
		require.NoError(t, h.handleCallback(c))

		assert.Equal(t, "⚠️ Could not play audio, try again later.", c.lastSent().text())

		// The quiz is untouched
		q, err := quiz.CurrentQuestion(context.Background(), testUserID)
		require.NoError(t, err)
		assert.Equal(t, "cat", q.Word.Term)
	})

	t.Run("chat action fails", func(t *testing.T) {
		synth := &testutil.MockSynthesizer{Audio: []byte("ID3-audio")}
		synth.On("Synthesize", mock.Anything, "cat", "en").Return(nil)

		h, quiz := newTestHandler(t, synth)
		startTestDeck(t, h, quiz)

		c := newCallbackContext(testUserID, "\fplay")
		c.notifyErr = fmt.Errorf("chat not found")
		require.NoError(t, h.handleCallback(c))

		require.Len(t, c.sent, 1)
		_, ok := c.sent[0].what.(*tele.Audio)
		assert.True(t, ok)
	})

	t.Run("narration disabled", func(t *testing.T) {
		h, quiz := newTestHandler(t, nil)
		startTestDeck(t, h, quiz)

		c := newCallbackContext(testUserID, "\fplay")
		require.NoError(t, h.handleCallback(c))

		assert.Empty(t, c.sent)
		require.Len(t, c.responses, 1)
		assert.Equal(t, "🔇 Audio is not configured.", c.responses[0].Text)
	})
}

func TestHandleCallback_Unknown(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	tests := []struct {
		name string
		data string
	}{
		{name: "unknown button", data: "\fsomething"},
		{name: "malformed answer", data: "\fans_x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCallbackContext(testUserID, tt.data)

			require.NoError(t, h.handleCallback(c))

			assert.Empty(t, c.sent)
			assert.Empty(t, c.edits)
			assert.Equal(t, 1, c.acks)
		})
	}
}

func TestHandleStartAndReset(t *testing.T) {
	h, quiz := newTestHandler(t, nil)

	fresh := newCommandContext(testUserID)
	require.NoError(t, h.handleStart(fresh))
	require.Len(t, fresh.sent, 1)
	assert.Equal(t, greetingText, fresh.sent[0].text())

	_, err := quiz.StartDeck(context.Background(), testUserID, "animals.csv", testutil.NewTestWords())
	require.NoError(t, err)

	returning := newCommandContext(testUserID)
	require.NoError(t, h.handleStart(returning))
	require.Len(t, returning.sent, 2)
	assert.Contains(t, returning.sent[1].text(), "📖 Word 1/4")

	reset := newCommandContext(testUserID)
	require.NoError(t, h.handleReset(reset))
	assert.Contains(t, reset.lastSent().text(), "Deck forgotten")

	ok, err := quiz.HasSession(context.Background(), testUserID)
	require.NoError(t, err)
	assert.False(t, ok)
}
