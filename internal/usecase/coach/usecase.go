package coach

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/pkg/formatter"
	"github.com/opmgt/beergame-coach/internal/repository"
	"go.uber.org/zap"
)

// CoachUsecase is the session turn controller: it owns the conversation
// state machine (role selection, role lock, per-turn sequencing) around the
// generation orchestrator.
type CoachUsecase struct {
	sessions  repository.SessionRepository
	generator *Generator
	blobStore BlobStore
	formats   *formatter.Factory
	modeKey   string
	sections  []string
	logger    *zap.Logger

	// One turn at a time per session: the per-session lock serializes
	// submits so two requests cannot interleave one conversation.
	mu        sync.Mutex
	turnLocks map[string]*sync.Mutex
}

func NewUsecase(
	sessions repository.SessionRepository,
	generator *Generator,
	blobStore BlobStore,
	cfg config.CoachConfig,
	logger *zap.Logger,
) *CoachUsecase {
	return &CoachUsecase{
		sessions:  sessions,
		generator: generator,
		blobStore: blobStore,
		formats:   formatter.NewFactory(),
		modeKey:   cfg.ModeKey,
		sections:  cfg.Sections,
		logger:    logger,
		turnLocks: make(map[string]*sync.Mutex),
	}
}

// StartSession creates a fresh session with the generic greeting and no
// role selected.
func (uc *CoachUsecase) StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.Session, error) {
	section := strings.TrimSpace(req.Section)
	pid := strings.TrimSpace(req.ParticipantID)

	if section == "" {
		return nil, fmt.Errorf("%w: section", entity.ErrMissingField)
	}
	if pid == "" {
		return nil, fmt.Errorf("%w: participant_id", entity.ErrMissingField)
	}
	if !slices.Contains(uc.sections, section) {
		return nil, fmt.Errorf("%w: unknown section %q", entity.ErrInvalidFormat, section)
	}

	session := &entity.Session{
		ID:            uuid.New().String(),
		Section:       section,
		ParticipantID: pid,
		Mode:          uc.modeKey,
		StartTime:     time.Now(),
		Messages: []entity.ChatMessage{
			{Role: entity.MessageRoleAssistant, Content: greetingMessage},
		},
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ctxzap.Info(ctx, "coaching session started",
		zap.String("session_id", session.ID),
		zap.String("section", section),
	)

	return snapshotSession(session), nil
}

// GetSession returns a copy of the current session state. The copy is taken
// under the turn lock so readers never observe a half-applied turn, and
// callers can hold the result across a concurrent submit.
func (uc *CoachUsecase) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	lock := uc.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return snapshotSession(session), nil
}

// SelectRole chooses or changes the participant role. Before the lock a
// role change resets the conversation to a single welcome message and
// restarts the session clock; after the lock the selection is rejected.
func (uc *CoachUsecase) SelectRole(ctx context.Context, sessionID, roleName string) (*entity.Session, error) {
	lock := uc.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.RoleLocked {
		return nil, entity.ErrRoleLocked
	}

	role, err := entity.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	if role == session.WelcomedRole {
		return snapshotSession(session), nil
	}

	session.SelectedRole = role
	session.WelcomedRole = role
	session.StartTime = time.Now()
	session.Messages = []entity.ChatMessage{
		{Role: entity.MessageRoleAssistant, Content: buildWelcomeMessage(role)},
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ctxzap.Info(ctx, "role selected",
		zap.String("session_id", sessionID),
		zap.String("role", string(role)),
	)

	return snapshotSession(session), nil
}

// SubmitMessage runs one turn: append the utterance, lock the role, invoke
// the generation orchestrator, render the reply, then persist best-effort.
// On generation failure the utterance stays in the log without an assistant
// entry and nothing is persisted.
func (uc *CoachUsecase) SubmitMessage(ctx context.Context, sessionID, text string) (*entity.TurnResult, error) {
	lock := uc.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.SelectedRole.Selected() {
		return nil, entity.ErrRoleRequired
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text", entity.ErrMissingField)
	}

	session.Messages = append(session.Messages, entity.ChatMessage{
		Role:    entity.MessageRoleUser,
		Content: text,
	})
	// Role locks on the first utterance; locking again is a no-op.
	session.RoleLocked = true

	mode, err := uc.generator.modes.Mode(session.Mode)
	if err != nil {
		return nil, err
	}
	systemInstruction := buildSystemInstruction(mode.SystemPrompt, session.SelectedRole)

	result, err := uc.generator.Generate(ctx, session.Messages, systemInstruction, session.Mode)
	if err != nil {
		// Keep the dangling user utterance: an assistant that did not
		// answer is a legitimate log state.
		if saveErr := uc.sessions.Save(ctx, session); saveErr != nil {
			ctxzap.Error(ctx, "failed to save session after generation failure", zap.Error(saveErr))
		}
		return nil, err
	}

	reply := buildUserVisibleReply(result.Payload)
	session.Messages = append(session.Messages, entity.ChatMessage{
		Role:    entity.MessageRoleAssistant,
		Content: reply,
		Payload: result.Payload,
	})

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	turn := &entity.TurnResult{
		Reply:        reply,
		Payload:      result.Payload,
		UsedFallback: result.UsedFallback,
	}
	if result.Notice != "" {
		turn.Notices = append(turn.Notices, result.Notice)
	}

	uc.autosave(ctx, session, text, result.Payload, turn)

	return turn, nil
}

// EndSession saves the transcript one last time and discards the session.
func (uc *CoachUsecase) EndSession(ctx context.Context, sessionID string) (*entity.EndSessionDTO, error) {
	lock := uc.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &entity.EndSessionDTO{}

	saved, err := uc.persistTranscript(ctx, session, time.Now())
	if err != nil {
		result.Notices = append(result.Notices, persistenceNotice("transcript", err))
	} else {
		result.SavedTranscript = saved
	}

	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	uc.dropTurnLock(sessionID)

	ctxzap.Info(ctx, "coaching session ended", zap.String("session_id", sessionID))

	return result, nil
}

// Export renders the transcript in the requested download format. The
// session is read under the turn lock so the export never captures a
// half-applied turn.
func (uc *CoachUsecase) Export(ctx context.Context, sessionID string, format entity.ResultFormat) ([]byte, string, string, error) {
	lock := uc.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, "", "", err
	}

	f, err := uc.formats.Create(format)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	body, err := f.Format(buildTranscript(session, time.Now()))
	if err != nil {
		return nil, "", "", fmt.Errorf("format transcript: %w", err)
	}

	name := fmt.Sprintf("beergame_transcript_P%s%s",
		sanitizeForFilename(session.ParticipantID), f.FileExtension())

	return body, f.ContentType(), name, nil
}

// getSession loads the live session while the caller holds the turn lock.
// When the session has expired from the store, the orphaned turn lock is
// pruned so the map does not grow with dead sessions.
func (uc *CoachUsecase) getSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			uc.dropTurnLock(sessionID)
		}
		return nil, err
	}
	return session, nil
}

// snapshotSession copies the session for hand-off outside the turn lock.
// The message slice is copied; payloads are immutable once attached.
func snapshotSession(session *entity.Session) *entity.Session {
	copied := *session
	copied.Messages = append([]entity.ChatMessage(nil), session.Messages...)
	return &copied
}

func (uc *CoachUsecase) turnLock(sessionID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	lock, ok := uc.turnLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		uc.turnLocks[sessionID] = lock
	}
	return lock
}

func (uc *CoachUsecase) dropTurnLock(sessionID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.turnLocks, sessionID)
}
