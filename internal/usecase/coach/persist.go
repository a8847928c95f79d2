package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/pkg/formatter"
	"go.uber.org/zap"
)

// autosave forwards the full log and the structured payload to the sink
// after a successful turn. Failures never roll back the in-memory log;
// they surface as notices on the turn result.
func (uc *CoachUsecase) autosave(
	ctx context.Context,
	session *entity.Session,
	userInput string,
	payload *entity.StructuredPayload,
	turn *entity.TurnResult,
) {
	now := time.Now()

	saved, err := uc.persistTranscript(ctx, session, now)
	if err != nil {
		logPersistenceWarning(ctx, "transcript", err)
		turn.Notices = append(turn.Notices, persistenceNotice("transcript", err))
	} else {
		turn.SavedTranscript = saved
	}

	saved, err = uc.persistStructured(ctx, session, userInput, payload, now)
	if err != nil {
		logPersistenceWarning(ctx, "structured payload", err)
		turn.Notices = append(turn.Notices, persistenceNotice("structured payload", err))
	} else {
		turn.SavedPayload = saved
	}
}

// persistTranscript uploads the tabular transcript export. Skipped with
// entity.ErrMissingRequiredFields when the session has no usable identity.
func (uc *CoachUsecase) persistTranscript(ctx context.Context, session *entity.Session, now time.Time) (string, error) {
	if err := requirePersistenceFields(session); err != nil {
		return "", err
	}

	csvFormatter := formatter.NewCSVFormatter()
	body, err := csvFormatter.Format(buildTranscript(session, now))
	if err != nil {
		return "", fmt.Errorf("format transcript: %w", err)
	}

	return uc.blobStore.Upload(ctx, transcriptObjectName(session, now), csvFormatter.ContentType(), body)
}

// persistStructured uploads the keyed JSON document for one turn.
func (uc *CoachUsecase) persistStructured(
	ctx context.Context,
	session *entity.Session,
	userInput string,
	payload *entity.StructuredPayload,
	now time.Time,
) (string, error) {
	if err := requirePersistenceFields(session); err != nil {
		return "", err
	}

	doc := &entity.StructuredDocument{
		Mode:            session.Mode,
		Section:         session.Section,
		ParticipantID:   session.ParticipantID,
		Role:            string(session.SelectedRole),
		Timestamp:       now.Format(time.RFC3339),
		UserInput:       userInput,
		AssistantOutput: payload,
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal structured document: %w", err)
	}

	return uc.blobStore.Upload(ctx, payloadObjectName(session, now), "application/json", body)
}

// requirePersistenceFields reports ErrMissingRequiredFields when the sink
// write must be skipped rather than attempted.
func requirePersistenceFields(session *entity.Session) error {
	if session.ParticipantID == "" || session.Section == "" || !session.SelectedRole.Selected() {
		return entity.ErrMissingRequiredFields
	}
	return nil
}

func persistenceNotice(what string, err error) string {
	return fmt.Sprintf("%s not saved: %v", what, err)
}

// logPersistenceWarning downgrades sink errors to warnings in the logs.
func logPersistenceWarning(ctx context.Context, what string, err error) {
	ctxzap.Warn(ctx, "persistence sink write skipped or failed",
		zap.String("what", what),
		zap.Error(err),
	)
}
