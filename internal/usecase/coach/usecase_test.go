package coach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/integration/blob"
	"github.com/opmgt/beergame-coach/internal/prompts"
	"github.com/opmgt/beergame-coach/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingBlobStore struct{}

func (failingBlobStore) Upload(context.Context, string, string, []byte) (string, error) {
	return "", entity.ErrPersistenceFailed
}

func testCoachConfig() config.CoachConfig {
	return config.CoachConfig{
		ModeKey:    prompts.ModeQualitative,
		SessionTTL: time.Hour,
		Sections:   []string{"OPMGT 301 A", "OPMGT 301 B"},
	}
}

func newTestUsecase(primary, fallback *fakeBackend, store BlobStore) *CoachUsecase {
	if store == nil {
		store = blob.NewMockConnector(zap.NewNop())
	}
	return NewUsecase(
		repository.NewSessionMemory(time.Hour),
		newTestGenerator(primary, fallback),
		store,
		testCoachConfig(),
		zap.NewNop(),
	)
}

func startSession(t *testing.T, uc *CoachUsecase) *entity.Session {
	t.Helper()
	session, err := uc.StartSession(context.Background(), &entity.StartSessionRequest{
		Section:       "OPMGT 301 A",
		ParticipantID: "7",
	})
	require.NoError(t, err)
	return session
}

func TestStartSessionValidation(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{output: validOutput}, &fakeBackend{}, nil)
	ctx := context.Background()

	_, err := uc.StartSession(ctx, &entity.StartSessionRequest{Section: "", ParticipantID: "7"})
	assert.True(t, errors.Is(err, entity.ErrMissingField))

	_, err = uc.StartSession(ctx, &entity.StartSessionRequest{Section: "OPMGT 301 A", ParticipantID: "  "})
	assert.True(t, errors.Is(err, entity.ErrMissingField))

	_, err = uc.StartSession(ctx, &entity.StartSessionRequest{Section: "OPMGT 999", ParticipantID: "7"})
	assert.True(t, errors.Is(err, entity.ErrInvalidFormat))

	session := startSession(t, uc)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, entity.MessageRoleAssistant, session.Messages[0].Role)
	assert.False(t, session.RoleLocked)
	assert.False(t, session.SelectedRole.Selected())
}

func TestRoleSelectionSequence(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, nil)
	ctx := context.Background()
	session := startSession(t, uc)

	// Select Retailer: log resets to one welcome message.
	session, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.Contains(t, session.Messages[0].Content, "'Retailer'")

	// Change to Wholesaler before any message: log resets again.
	session, err = uc.SelectRole(ctx, session.ID, "Wholesaler")
	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.Contains(t, session.Messages[0].Content, "'Wholesaler'")
	assert.Equal(t, entity.RoleWholesaler, session.WelcomedRole)

	// Re-selecting the welcomed role is a no-op, not a reset.
	before := session.StartTime
	session, err = uc.SelectRole(ctx, session.ID, "Wholesaler")
	require.NoError(t, err)
	assert.Equal(t, before, session.StartTime)

	// First message locks the role.
	_, err = uc.SubmitMessage(ctx, session.ID, "week 1, demand 4")
	require.NoError(t, err)

	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, session.RoleLocked)
	logLen := len(session.Messages)

	// Role changes after the lock are rejected and change nothing.
	_, err = uc.SelectRole(ctx, session.ID, "Factory")
	assert.True(t, errors.Is(err, entity.ErrRoleLocked))

	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleWholesaler, session.SelectedRole)
	assert.Len(t, session.Messages, logLen)
}

func TestRoleLockIdempotent(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, nil)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)

	_, err = uc.SubmitMessage(ctx, session.ID, "week 1")
	require.NoError(t, err)
	_, err = uc.SubmitMessage(ctx, session.ID, "week 2")
	require.NoError(t, err)

	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, session.RoleLocked)
}

func TestSubmitMessageRequiresRole(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{output: validOutput}, &fakeBackend{}, nil)
	session := startSession(t, uc)

	_, err := uc.SubmitMessage(context.Background(), session.ID, "week 1")
	assert.True(t, errors.Is(err, entity.ErrRoleRequired))
}

func TestSubmitMessageSuccessfulTurn(t *testing.T) {
	store := blob.NewMockConnector(zap.NewNop())
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, store)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)

	turn, err := uc.SubmitMessage(ctx, session.ID, "week 3, demand 8, inventory 4")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(turn.Reply, "**Order Logic:**"))
	assert.Contains(t, turn.Reply, "**Recommended Order:** Increase moderately")
	assert.Equal(t, "12", turn.Payload.QuantitativeAnswer)
	assert.Empty(t, turn.Notices)

	// Both sink objects were written and named.
	require.NotEmpty(t, turn.SavedTranscript)
	require.NotEmpty(t, turn.SavedPayload)
	assert.Contains(t, turn.SavedTranscript, "OPMGT_301_A")
	assert.Contains(t, turn.SavedTranscript, "P7_Retailer_")
	_, ok := store.Object(turn.SavedTranscript)
	assert.True(t, ok)
	body, ok := store.Object(turn.SavedPayload)
	require.True(t, ok)
	assert.Contains(t, string(body), `"quantitative_answer": "12"`)
	assert.Contains(t, string(body), `"user_input": "week 3, demand 8, inventory 4"`)

	// Log gained the user turn and the assistant turn with the payload.
	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 3)
	last := session.Messages[2]
	assert.Equal(t, entity.MessageRoleAssistant, last.Role)
	require.NotNil(t, last.Payload)
	assert.Equal(t, "12", last.Payload.QuantitativeAnswer)
}

func TestSubmitMessageGenerationFailure(t *testing.T) {
	store := blob.NewMockConnector(zap.NewNop())
	uc := newTestUsecase(&fakeBackend{model: "p", output: "no json here"}, &fakeBackend{model: "f"}, store)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Factory")
	require.NoError(t, err)

	_, err = uc.SubmitMessage(ctx, session.ID, "week 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrGenerationFailed))

	// The user utterance stays in the log without an assistant entry.
	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, entity.MessageRoleUser, session.Messages[1].Role)
	assert.True(t, session.RoleLocked)
}

func TestSubmitMessagePersistenceFailureIsNonFatal(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, failingBlobStore{})
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Distributor")
	require.NoError(t, err)

	turn, err := uc.SubmitMessage(ctx, session.ID, "week 2, demand 4")
	require.NoError(t, err, "sink failures never abort the turn")
	require.Len(t, turn.Notices, 2)
	assert.Contains(t, turn.Notices[0], "transcript not saved")
	assert.Empty(t, turn.SavedTranscript)
}

func TestEndSessionWithoutRoleSkipsPersistence(t *testing.T) {
	store := blob.NewMockConnector(zap.NewNop())
	uc := newTestUsecase(&fakeBackend{output: validOutput}, &fakeBackend{}, store)
	ctx := context.Background()
	session := startSession(t, uc)

	result, err := uc.EndSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, result.SavedTranscript)
	require.Len(t, result.Notices, 1)
	assert.Contains(t, result.Notices[0], entity.ErrMissingRequiredFields.Error())

	_, err = uc.GetSession(ctx, session.ID)
	assert.True(t, errors.Is(err, entity.ErrSessionNotFound))
}

func TestGetSessionReturnsSnapshot(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, nil)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)

	snapshot, err := uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	msgCount := len(snapshot.Messages)

	_, err = uc.SubmitMessage(ctx, session.ID, "week 1, demand 4")
	require.NoError(t, err)

	// The earlier read is a copy and must not see the new turn.
	assert.Len(t, snapshot.Messages, msgCount)
	assert.False(t, snapshot.RoleLocked)
}

func TestConcurrentReadsDuringTurns(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, nil)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)

	// Readers iterating the log while turns append to it; the race detector
	// flags any unsynchronized access to the shared session.
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := uc.SubmitMessage(ctx, session.ID, "week 1, demand 4"); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			snapshot, err := uc.GetSession(ctx, session.ID)
			if err != nil {
				t.Error(err)
				return
			}
			for _, msg := range snapshot.Messages {
				_ = msg.Content
			}
			if _, _, _, err := uc.Export(ctx, session.ID, entity.FormatCSV); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	wg.Wait()

	session, err = uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	// Welcome message plus one user/assistant pair per turn.
	assert.Len(t, session.Messages, 101)
}

func TestMissingSessionPrunesTurnLock(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{output: validOutput}, &fakeBackend{}, nil)

	_, err := uc.GetSession(context.Background(), "expired-id")
	require.True(t, errors.Is(err, entity.ErrSessionNotFound))

	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.turnLocks["expired-id"]
	assert.False(t, ok, "lookup of a gone session must not leave a lock behind")
}

func TestExportTranscript(t *testing.T) {
	uc := newTestUsecase(&fakeBackend{model: "p", output: validOutput}, &fakeBackend{model: "f"}, nil)
	ctx := context.Background()
	session := startSession(t, uc)

	_, err := uc.SelectRole(ctx, session.ID, "Retailer")
	require.NoError(t, err)
	_, err = uc.SubmitMessage(ctx, session.ID, "week 3, demand 8")
	require.NoError(t, err)

	body, contentType, name, err := uc.Export(ctx, session.ID, entity.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", contentType)
	assert.Equal(t, "beergame_transcript_P7.csv", name)
	assert.Contains(t, string(body), "Participant Role,Retailer")

	_, _, _, err = uc.Export(ctx, session.ID, entity.ResultFormat("xlsx"))
	assert.True(t, errors.Is(err, entity.ErrInvalidFormat))
}
