package middleware

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	uploadPrompt = "📂 Upload a CSV deck first. Columns: term, example, translation."
	failureText  = "Something went wrong, try again."
)

// SessionChecker reports whether a user has an active quiz
type SessionChecker interface {
	HasSession(ctx context.Context, userID int64) (bool, error)
}

// RequireSession lets quiz commands and buttons through only for users who
// uploaded a deck; everyone else gets an upload prompt
func RequireSession(checker SessionChecker, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			ok, err := checker.HasSession(context.Background(), sender.ID)
			if err != nil {
				logger.Error("Failed to check session in middleware",
					zap.Error(err),
					zap.Int64("user_id", sender.ID),
				)
				return reply(c, failureText)
			}

			if !ok {
				return reply(c, uploadPrompt)
			}

			return next(c)
		}
	}
}

// reply answers a button press with an alert and anything else with a message
func reply(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
