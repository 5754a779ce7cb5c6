package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"minigame-bot/internal/chat"
)

// buttonsPerRow keeps choice keyboards compact; a board fits in three rows.
const buttonsPerRow = 3

// Send implements chat.Sender.
func (b *Bot) Send(ctx context.Context, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", msg.ChatID, err)
	}

	if _, err := b.bot.Send(tele.ChatID(chatID), renderHTML(msg.Text), sendOptions(msg)); err != nil {
		return fmt.Errorf("failed to send message to chat %s: %w", msg.ChatID, err)
	}
	return nil
}

func sendOptions(msg chat.Message) *tele.SendOptions {
	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	}
	if ref, err := strconv.Atoi(msg.QuotedRef); err == nil && ref > 0 {
		opts.ReplyTo = &tele.Message{ID: ref}
		opts.AllowWithoutReply = true
	}
	if msg.Choices != nil && len(msg.Choices.Rows) > 0 {
		opts.ReplyMarkup = keyboard(msg.Choices)
	}
	return opts
}

// keyboard turns a choice list into inline buttons whose callback data is
// the choice value, so a press arrives as that command.
func keyboard(c *chat.Choices) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	var row []tele.InlineButton
	for _, choice := range c.Rows {
		row = append(row, tele.InlineButton{Text: choice.Label, Data: choice.Value})
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// renderHTML escapes text for HTML parse mode and turns ``` fenced blocks
// into <pre> blocks.
func renderHTML(text string) string {
	parts := strings.Split(text, "```")
	var sb strings.Builder
	for i, p := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			sb.WriteString("<pre>")
			sb.WriteString(html.EscapeString(strings.Trim(p, "\n")))
			sb.WriteString("</pre>")
			continue
		}
		if i%2 == 1 {
			// Unterminated fence: keep it literal.
			sb.WriteString("```")
		}
		sb.WriteString(html.EscapeString(p))
	}
	return sb.String()
}
