package bot

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	tele "gopkg.in/telebot.v3"

	"minigame-bot/internal/chat"
)

// directory remembers the users seen per username so plain @username
// mentions can be resolved to an account.
type directory struct {
	mu    sync.RWMutex
	users map[string]chat.Participant
}

func newDirectory() *directory {
	return &directory{users: make(map[string]chat.Participant)}
}

func (d *directory) remember(u *tele.User) {
	if u == nil || u.Username == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[strings.ToLower(u.Username)] = participant(u)
}

func (d *directory) lookup(username string) (chat.Participant, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.users[strings.ToLower(strings.TrimPrefix(username, "@"))]
	return p, ok
}

func participant(u *tele.User) chat.Participant {
	name := u.Username
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return chat.Participant{ID: strconv.FormatInt(u.ID, 10), Name: name}
}

func isGroup(c *tele.Chat) bool {
	return c.Type == tele.ChatGroup || c.Type == tele.ChatSuperGroup
}

// callbackText strips the marker telebot puts in front of unique callbacks.
func callbackText(data string) string {
	return strings.TrimSpace(strings.TrimPrefix(data, "\f"))
}

// eventFromMessage converts an inbound message. Captions are treated as text.
func eventFromMessage(m *tele.Message, dir *directory, isOwner func(int64) bool) (chat.Event, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return chat.Event{}, false
	}

	text, entities := m.Text, m.Entities
	if text == "" {
		text, entities = m.Caption, m.CaptionEntities
	}
	if strings.TrimSpace(text) == "" {
		return chat.Event{}, false
	}

	dir.remember(m.Sender)
	ev := baseEvent(m.Chat, m.Sender, isOwner)
	ev.Text = text
	ev.MessageRef = strconv.Itoa(m.ID)
	ev.SentAt = m.Time()
	ev.Mentions = mentions(text, entities, m.ReplyTo, dir)
	return ev, true
}

// eventFromCallback converts a button press. The button value is the text.
func eventFromCallback(cb *tele.Callback, isOwner func(int64) bool) (chat.Event, bool) {
	if cb == nil || cb.Sender == nil || cb.Message == nil || cb.Message.Chat == nil {
		return chat.Event{}, false
	}
	text := callbackText(cb.Data)
	if text == "" {
		return chat.Event{}, false
	}

	ev := baseEvent(cb.Message.Chat, cb.Sender, isOwner)
	ev.Text = text
	ev.SentAt = time.Now()
	return ev, true
}

func baseEvent(c *tele.Chat, u *tele.User, isOwner func(int64) bool) chat.Event {
	p := participant(u)
	return chat.Event{
		ChatID:     strconv.FormatInt(c.ID, 10),
		SenderID:   p.ID,
		SenderName: p.Name,
		IsFromSelf: isOwner != nil && isOwner(u.ID),
		IsGroup:    isGroup(c),
	}
}

// mentions collects text mentions, resolvable @username mentions and the
// author of the replied-to message, without duplicates.
func mentions(text string, entities tele.Entities, replyTo *tele.Message, dir *directory) []chat.Participant {
	var out []chat.Participant
	seen := make(map[string]bool)
	add := func(p chat.Participant) {
		if !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p)
		}
	}

	for _, e := range entities {
		switch e.Type {
		case tele.EntityTMention:
			if e.User != nil {
				add(participant(e.User))
			}
		case tele.EntityMention:
			if p, ok := dir.lookup(entityText(text, e)); ok {
				add(p)
			}
		}
	}
	if replyTo != nil && replyTo.Sender != nil && !replyTo.Sender.IsBot {
		add(participant(replyTo.Sender))
	}
	return out
}

// entityText slices text by an entity; offsets count UTF-16 code units.
func entityText(text string, e tele.MessageEntity) string {
	units := utf16.Encode([]rune(text))
	end := e.Offset + e.Length
	if e.Offset < 0 || end > len(units) || e.Offset > end {
		return ""
	}
	return string(utf16.Decode(units[e.Offset:end]))
}
