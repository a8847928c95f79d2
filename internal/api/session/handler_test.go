package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	session *entity.Session
	turn    *entity.TurnResult
	err     error
}

func (f *fakeUsecase) StartSession(context.Context, *entity.StartSessionRequest) (*entity.Session, error) {
	return f.session, f.err
}

func (f *fakeUsecase) GetSession(context.Context, string) (*entity.Session, error) {
	return f.session, f.err
}

func (f *fakeUsecase) SelectRole(context.Context, string, string) (*entity.Session, error) {
	return f.session, f.err
}

func (f *fakeUsecase) SubmitMessage(context.Context, string, string) (*entity.TurnResult, error) {
	return f.turn, f.err
}

func (f *fakeUsecase) EndSession(context.Context, string) (*entity.EndSessionDTO, error) {
	return &entity.EndSessionDTO{}, f.err
}

func (f *fakeUsecase) Export(context.Context, string, entity.ResultFormat) ([]byte, string, string, error) {
	if f.err != nil {
		return nil, "", "", f.err
	}
	return []byte("role,content\n"), "text/csv; charset=utf-8", "beergame_transcript_P7.csv", nil
}

func testRouter(uc CoachUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc))
	return r
}

func testSession() *entity.Session {
	return &entity.Session{
		ID:            "abc",
		Section:       "OPMGT 301 A",
		ParticipantID: "7",
		SelectedRole:  entity.RoleRetailer,
		StartTime:     time.Now(),
		Messages: []entity.ChatMessage{
			{Role: entity.MessageRoleAssistant, Content: "welcome"},
		},
	}
}

func TestStartSessionEndpoint(t *testing.T) {
	router := testRouter(&fakeUsecase{session: testSession()})

	body := bytes.NewBufferString(`{"section":"OPMGT 301 A","participant_id":"7"}`)
	req := httptest.NewRequest(http.MethodPost, "/coach-session", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var dto entity.SessionDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	assert.Equal(t, "abc", dto.ID)
	assert.Equal(t, "Retailer", dto.Role)
	require.Len(t, dto.Messages, 1)
}

func TestStartSessionEndpointBadBody(t *testing.T) {
	router := testRouter(&fakeUsecase{session: testSession()})

	req := httptest.NewRequest(http.MethodPost, "/coach-session", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitMessageEndpoint(t *testing.T) {
	turn := &entity.TurnResult{
		Reply:   "**Order Logic:** gap\n\n**Recommended Order:** 12",
		Payload: &entity.StructuredPayload{QuantitativeAnswer: "12"},
		Notices: []string{"transcript not saved: sink down"},
	}
	router := testRouter(&fakeUsecase{turn: turn})

	body := bytes.NewBufferString(`{"text":"week 3, demand 8"}`)
	req := httptest.NewRequest(http.MethodPost, "/coach-session/abc/message", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto entity.TurnResultDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	assert.Equal(t, "12", dto.Payload.QuantitativeAnswer)
	assert.Equal(t, []string{"transcript not saved: sink down"}, dto.Notices)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: entity.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "role locked", err: entity.ErrRoleLocked, want: http.StatusConflict},
		{name: "role required", err: entity.ErrRoleRequired, want: http.StatusConflict},
		{name: "invalid role", err: entity.ErrInvalidRole, want: http.StatusBadRequest},
		{name: "generation failed", err: entity.ErrGenerationFailed, want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(&fakeUsecase{err: tt.err})

			body := bytes.NewBufferString(`{"text":"week 1"}`)
			req := httptest.NewRequest(http.MethodPost, "/coach-session/abc/message", body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetTranscriptEndpoint(t *testing.T) {
	router := testRouter(&fakeUsecase{session: testSession()})

	req := httptest.NewRequest(http.MethodGet, "/coach-session/abc/transcript?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "beergame_transcript_P7.csv")
}
