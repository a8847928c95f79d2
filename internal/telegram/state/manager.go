package state

import (
	"context"
	"fmt"
	"time"
)

// Manager manages chat states
type Manager struct {
	storage Storage
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
	}
}

// Get retrieves chat state from storage
func (m *Manager) Get(ctx context.Context, userID int64) (*ChatState, error) {
	chat, err := m.storage.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get chat state from storage: %w", err)
	}

	return chat, nil
}

// Set saves chat state to storage
func (m *Manager) Set(ctx context.Context, chat *ChatState) error {
	chat.UpdatedAt = time.Now()

	if err := m.storage.Set(ctx, chat); err != nil {
		return fmt.Errorf("save chat state to storage: %w", err)
	}

	return nil
}

// Delete removes chat state from storage
func (m *Manager) Delete(ctx context.Context, userID int64) error {
	if err := m.storage.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete chat state from storage: %w", err)
	}

	return nil
}
