package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/service"
	"minigame-bot/internal/status"
)

// ControlTrigger is the command that is processed even while the bot is off.
const ControlTrigger = "!bot"

// ControlHandler serves !bot, !ping, !status and !help.
type ControlHandler struct {
	base
	control   *service.ControlService
	collector *status.Collector
	now       func() time.Time
}

// NewControlHandler creates a new ControlHandler. collector may be nil, in
// which case !status is not registered.
func NewControlHandler(control *service.ControlService, collector *status.Collector, sender chat.Sender) *ControlHandler {
	return &ControlHandler{
		base:      base{sender: sender},
		control:   control,
		collector: collector,
		now:       time.Now,
	}
}

// Register binds the control commands.
func (h *ControlHandler) Register(reg *command.Registry) error {
	routes := map[string]command.Handler{
		ControlTrigger: ownerOnly(h.handleBot),
		"!ping":        h.handlePing,
		"!help":        h.handleHelp,
	}
	if h.collector != nil {
		routes["!status"] = h.handleStatus
	}
	return registerEach(reg, routes)
}

func onOff(v bool) string {
	if v {
		return "ON ✅"
	}
	return "OFF ⛔"
}

func (h *ControlHandler) handleBot(ctx context.Context, ev chat.Event) error {
	switch command.SubCommand(ev.Text) {
	case "on":
		if err := h.control.SetGlobal(ctx, true); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Bot global: "+onOff(true))
	case "off":
		if err := h.control.SetGlobal(ctx, false); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Bot global: "+onOff(false))
	case "onhere", "on-here":
		if err := h.control.SetChat(ctx, ev.ChatID, true); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Bot in this chat: "+onOff(true))
	case "offhere", "off-here":
		if err := h.control.SetChat(ctx, ev.ChatID, false); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Bot in this chat: "+onOff(false))
	}

	global, here := h.control.State(ev.ChatID)
	return h.reply(ctx, ev, paragraphs(
		lines("Bot status:", "• Global: "+onOff(global), "• This chat: "+onOff(here)),
		lines("Commands:", "- !bot on | !bot off", "- !bot onhere | !bot offhere"),
	))
}

func (h *ControlHandler) handlePing(ctx context.Context, ev chat.Event) error {
	text := "pong (👉ﾟヮﾟ)👉"
	if !ev.SentAt.IsZero() {
		latency := h.now().Sub(ev.SentAt)
		if latency < 0 {
			latency = 0
		}
		text = lines(text, fmt.Sprintf("Latency: %d ms", latency.Milliseconds()))
	}
	return h.reply(ctx, ev, text)
}

func (h *ControlHandler) handleStatus(ctx context.Context, ev chat.Event) error {
	r := h.collector.Report()

	names := make([]string, 0, len(r.Sessions))
	for name := range r.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	sessions := make([]string, len(names))
	for i, name := range names {
		sessions[i] = fmt.Sprintf("%s=%d", name, r.Sessions[name])
	}

	return h.reply(ctx, ev, lines(
		"📊 Status",
		"⏱️ Uptime: "+r.Uptime().String(),
		fmt.Sprintf("⏰ Armed reminders: %d", r.ArmedReminders),
		"🎮 Sessions: "+strings.Join(sessions, ", "),
	))
}

// helpTopics lists the topics in menu order.
var helpTopics = []struct {
	Key   string
	Label string
}{
	{"general", "General"},
	{"game", "Number guess"},
	{"ttt", "Tic-Tac-Toe"},
	{"quiz", "Trivia quiz"},
	{"akinator", "Akinator"},
	{"reminder", "Reminder (owner)"},
}

func (h *ControlHandler) handleHelp(ctx context.Context, ev chat.Event) error {
	topic := command.SubCommand(ev.Text)
	if topic == "" {
		rows := make([]chat.Choice, len(helpTopics))
		for i, t := range helpTopics {
			rows[i] = chat.Choice{Label: t.Label, Value: "!help " + t.Key}
		}
		msg := chat.Reply(ev, "Pick a help topic:")
		msg.Choices = &chat.Choices{Title: "Topics", Button: "Pick a topic", Rows: rows}
		return h.send(ctx, msg)
	}
	return h.reply(ctx, ev, helpText(topic))
}

func helpText(topic string) string {
	switch topic {
	case "general":
		return lines(
			"General help:",
			"- !ping → liveness check with latency",
			"- !status → uptime, armed reminders and open games",
			"- !help <topic> → this help",
		)
	case "game":
		return lines(
			"Number guess help:",
			"- !tebak → start a game, then guess with !1 … !9",
			"- !tebak <n> → guess any number from 1 to 10",
			"- Hints tell you whether to go higher or lower",
		)
	case "ttt":
		return lines(
			"Tic-Tac-Toe help:",
			"- Group: !ttt @user to challenge someone",
			"- Direct chat: !ttt to play the bot (you are X)",
			"- Pick a cell from the list or with !1 … !9",
			"- Give up: !ttt resign | !ttt stop",
		)
	case "quiz", "kuis":
		return lines(
			"Trivia quiz help:",
			"- !kuis → get a question",
			"- Answer with !1 … !4",
			"- !kuis stop → give up",
		)
	case "akinator":
		return lines(
			"Akinator help:",
			"- !akinator [region] → think of a character and answer",
			"- !1 yes, !2 no, !3 don't know, !4 probably, !5 probably not",
			"- !akinator back | !akinator stop",
		)
	case "reminder":
		return lines(
			"Reminder help (owner only):",
			"- !reminder <message> <HH:MM> → set a reminder",
			"- !reminder-list → pending reminders in this chat",
			"- !reminder-cancel <id|index> → cancel a reminder",
		)
	}
	return "Unknown topic. Try !help for the list."
}
