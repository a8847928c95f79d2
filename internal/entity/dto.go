package entity

import "time"

// StartSessionRequest creates a new coaching session.
type StartSessionRequest struct {
	Section       string `json:"section"`
	ParticipantID string `json:"participant_id"`
}

// SelectRoleRequest chooses or changes the participant role.
type SelectRoleRequest struct {
	Role string `json:"role"`
}

// SubmitMessageRequest submits one user utterance.
type SubmitMessageRequest struct {
	Text string `json:"text"`
}

// SessionDTO is the API view of a session.
type SessionDTO struct {
	ID            string           `json:"id"`
	Section       string           `json:"section"`
	ParticipantID string           `json:"participant_id"`
	Role          string           `json:"role,omitempty"`
	RoleLocked    bool             `json:"role_locked"`
	StartedAt     time.Time        `json:"started_at"`
	Messages      []ChatMessageDTO `json:"messages"`
}

// ChatMessageDTO is the API view of a conversation log entry.
type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnResultDTO is the API view of a completed turn.
type TurnResultDTO struct {
	Reply           string             `json:"reply"`
	Payload         *StructuredPayload `json:"payload"`
	UsedFallback    bool               `json:"used_fallback,omitempty"`
	Notices         []string           `json:"notices,omitempty"`
	SavedTranscript string             `json:"saved_transcript,omitempty"`
	SavedPayload    string             `json:"saved_payload,omitempty"`
}

// EndSessionDTO reports the result of ending a session.
type EndSessionDTO struct {
	SavedTranscript string   `json:"saved_transcript,omitempty"`
	Notices         []string `json:"notices,omitempty"`
}
