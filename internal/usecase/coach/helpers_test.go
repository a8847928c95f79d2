package coach

import (
	"testing"
	"time"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "OPMGT301", want: "OPMGT301"},
		{name: "spaces and dots", value: " OPMGT 301 A. ", want: "OPMGT_301_A_"},
		{name: "keeps dash underscore", value: "team-7_b", want: "team-7_b"},
		{name: "slashes", value: "a/b\\c", want: "a_b_c"},
		{name: "unicode letters kept", value: "secção 1", want: "secção_1"},
		{name: "empty", value: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeForFilename(tt.value))
		})
	}
}

func TestBuildSystemInstruction(t *testing.T) {
	base := "You coach Beer Game participants."

	assert.Equal(t, base, buildSystemInstruction(base, entity.RolePlaceholder),
		"no role augmentation before a role is chosen")

	augmented := buildSystemInstruction(base, entity.RoleRetailer)
	assert.Contains(t, augmented, base)
	assert.Contains(t, augmented, "User role in Beer Game: Retailer.")
}

func TestBuildWelcomeMessage(t *testing.T) {
	msg := buildWelcomeMessage(entity.RoleDistributor)
	assert.Contains(t, msg, "You are the 'Distributor'.")
	assert.Contains(t, msg, "Week, Demand, Inv/Bk")
}

func TestObjectNames(t *testing.T) {
	at, err := time.Parse(time.RFC3339, "2026-02-03T09:15:42Z")
	require.NoError(t, err)

	session := &entity.Session{
		Section:       "OPMGT 301 A",
		ParticipantID: "7b",
		SelectedRole:  entity.RoleRetailer,
	}

	assert.Equal(t,
		"beergame_qualitative_OPMGT_301_A_P7b_Retailer_20260203_091542.csv",
		transcriptObjectName(session, at))
	assert.Equal(t,
		"beergame_qualitative_structured_OPMGT_301_A_P7b_Retailer_20260203_091542.json",
		payloadObjectName(session, at))
}

func TestBuildTranscriptLayout(t *testing.T) {
	start, err := time.Parse(time.RFC3339, "2026-02-03T09:00:00Z")
	require.NoError(t, err)
	end := start.Add(25 * time.Minute)

	session := &entity.Session{
		Section:       "OPMGT 301 A",
		ParticipantID: "7",
		Mode:          "BeerGameQualitative",
		SelectedRole:  entity.RoleFactory,
		StartTime:     start,
		Messages: []entity.ChatMessage{
			{Role: entity.MessageRoleAssistant, Content: "welcome"},
			{Role: entity.MessageRoleUser, Content: "week 1"},
		},
	}

	transcript := buildTranscript(session, end)
	require.Len(t, transcript.Rows, 8)

	assert.Equal(t, entity.TranscriptRow{Role: entity.MessageRoleUser, Content: "week 1"}, transcript.Rows[1])
	assert.Equal(t, entity.TranscriptRow{Role: "Mode", Content: "BeerGameQualitative"}, transcript.Rows[2])
	assert.Equal(t, entity.TranscriptRow{Role: "Participant Role", Content: "Factory"}, transcript.Rows[4])
	assert.Equal(t, entity.TranscriptRow{Role: "Start Time", Content: "2026-02-03 09:00:00"}, transcript.Rows[5])
	assert.Equal(t, entity.TranscriptRow{Role: "Duration", Content: "25m0s"}, transcript.Rows[7])
}
