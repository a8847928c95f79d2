package session

import "github.com/opmgt/beergame-coach/internal/entity"

// toSessionDTO converts Session entity to SessionDTO
func toSessionDTO(session *entity.Session) *entity.SessionDTO {
	messages := make([]entity.ChatMessageDTO, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(messages, entity.ChatMessageDTO{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return &entity.SessionDTO{
		ID:            session.ID,
		Section:       session.Section,
		ParticipantID: session.ParticipantID,
		Role:          string(session.SelectedRole),
		RoleLocked:    session.RoleLocked,
		StartedAt:     session.StartTime,
		Messages:      messages,
	}
}

// toTurnResultDTO converts TurnResult entity to TurnResultDTO
func toTurnResultDTO(turn *entity.TurnResult) *entity.TurnResultDTO {
	return &entity.TurnResultDTO{
		Reply:           turn.Reply,
		Payload:         turn.Payload,
		UsedFallback:    turn.UsedFallback,
		Notices:         turn.Notices,
		SavedTranscript: turn.SavedTranscript,
		SavedPayload:    turn.SavedPayload,
	}
}
