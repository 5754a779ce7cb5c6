package service

import (
	"context"
	"fmt"
	"sync"

	"minigame-bot/internal/model"
)

// SettingsStore persists on/off switches keyed by chat id.
type SettingsStore interface {
	Get(ctx context.Context, chatID string) (enabled, found bool, err error)
	Set(ctx context.Context, chatID string, enabled bool) error
	All(ctx context.Context) ([]model.ChatSetting, error)
}

// ControlService decides whether the bot answers in a chat. A chat is
// served when both the global switch and its own switch are on; both
// default to on.
type ControlService struct {
	store  SettingsStore
	global bool
	chats  map[string]bool
	mu     sync.RWMutex
}

// NewControlService creates a service over store. A nil store keeps the
// switches in memory only.
func NewControlService(store SettingsStore) *ControlService {
	return &ControlService{
		store:  store,
		global: true,
		chats:  make(map[string]bool),
	}
}

// Load fills the cache from the store.
func (s *ControlService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	rows, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if r.ChatID == model.GlobalSettingKey {
			s.global = r.Enabled
			continue
		}
		s.chats[r.ChatID] = r.Enabled
	}
	return nil
}

// Enabled reports whether the bot answers in chatID.
func (s *ControlService) Enabled(chatID string) bool {
	global, chat := s.State(chatID)
	return global && chat
}

// State returns the global switch and the chat's switch.
func (s *ControlService) State(chatID string) (global, chat bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		chat = true
	}
	return s.global, chat
}

// SetGlobal turns the bot on or off everywhere.
func (s *ControlService) SetGlobal(ctx context.Context, enabled bool) error {
	return s.set(ctx, model.GlobalSettingKey, enabled)
}

// SetChat turns the bot on or off in one chat.
func (s *ControlService) SetChat(ctx context.Context, chatID string, enabled bool) error {
	return s.set(ctx, chatID, enabled)
}

func (s *ControlService) set(ctx context.Context, key string, enabled bool) error {
	if s.store != nil {
		if err := s.store.Set(ctx, key, enabled); err != nil {
			return fmt.Errorf("failed to save setting: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key == model.GlobalSettingKey {
		s.global = enabled
	} else {
		s.chats[key] = enabled
	}
	return nil
}
