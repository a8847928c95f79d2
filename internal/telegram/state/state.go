package state

import (
	"context"
	"time"
)

// Stage is the chat-local position in the session setup flow. Once a
// coaching session exists the coach usecase owns all further state.
type Stage string

const (
	// StageAskSection waits for the participant to pick a class section.
	StageAskSection Stage = "ASK_SECTION"
	// StageAskParticipant waits for the participant ID as a text message.
	StageAskParticipant Stage = "ASK_PARTICIPANT"
	// StageChatting has an active coaching session behind it.
	StageChatting Stage = "CHATTING"
)

// ChatState maps one telegram user to their coaching session.
type ChatState struct {
	UserID    int64
	Stage     Stage
	Section   string
	SessionID string
	UpdatedAt time.Time
}

// Storage defines the interface for chat state persistence
type Storage interface {
	// Get retrieves chat state by user ID
	Get(ctx context.Context, userID int64) (*ChatState, error)

	// Set saves chat state
	Set(ctx context.Context, chat *ChatState) error

	// Delete removes chat state
	Delete(ctx context.Context, userID int64) error
}
