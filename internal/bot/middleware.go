package bot

import (
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"minigame-bot/internal/command"
	"minigame-bot/internal/handler"
)

// Enabler reports whether the bot answers in a chat.
type Enabler interface {
	Enabled(chatID string) bool
}

// commandText returns the text an update would dispatch: the callback data
// for button presses, otherwise the message text or caption.
func commandText(c tele.Context) string {
	if cb := c.Callback(); cb != nil {
		return callbackText(cb.Data)
	}
	m := c.Message()
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// passesControl decides whether an update is processed. The control command
// always passes so a disabled chat can be switched back on.
func passesControl(enabled bool, text string) bool {
	return enabled || command.FirstToken(text) == handler.ControlTrigger
}

// ControlMiddleware drops updates for chats where the bot is switched off.
func ControlMiddleware(control Enabler) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if control == nil {
				return next(c)
			}
			ch := c.Chat()
			if ch == nil {
				return nil
			}

			chatID := strconv.FormatInt(ch.ID, 10)
			if !passesControl(control.Enabled(chatID), commandText(c)) {
				log.Debug().
					Str("chat_id", chatID).
					Msg("Ignoring update in disabled chat")
				return nil
			}
			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", commandText(c)).
				Msg("Received message")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = nil
				}
			}()
			return next(c)
		}
	}
}
