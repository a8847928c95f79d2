package handlers

import (
	"context"

	"github.com/opmgt/beergame-coach/internal/entity"
)

// CoachUsecase defines the coaching operations the Telegram bot drives.
type CoachUsecase interface {
	StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.Session, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	SelectRole(ctx context.Context, sessionID, role string) (*entity.Session, error)
	SubmitMessage(ctx context.Context, sessionID, text string) (*entity.TurnResult, error)
	EndSession(ctx context.Context, sessionID string) (*entity.EndSessionDTO, error)
	Export(ctx context.Context, sessionID string, format entity.ResultFormat) (body []byte, contentType, filename string, err error)
}
