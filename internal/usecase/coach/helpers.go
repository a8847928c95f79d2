package coach

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/opmgt/beergame-coach/internal/entity"
)

const (
	greetingMessage = "Hello, I am your Beer Game coach."

	timestampLayout = "20060102_150405"
	metadataLayout  = "2006-01-02 15:04:05"
)

// sanitizeForFilename keeps letters, digits, '-' and '_'; every other
// character becomes '_'. Applied to the trimmed input.
func sanitizeForFilename(value string) string {
	var sb strings.Builder
	for _, ch := range strings.TrimSpace(value) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_' {
			sb.WriteRune(ch)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// buildSystemInstruction augments the base instruction with the
// participant's role. The placeholder role leaves the base unmodified.
func buildSystemInstruction(base string, role entity.Role) string {
	if !role.Selected() {
		return base
	}
	return fmt.Sprintf(
		"%s\n\nUser role in Beer Game: %s.\nTailor all guidance to this role's decisions, responsibilities, and tradeoffs.",
		base, role,
	)
}

// buildWelcomeMessage synthesizes the single assistant message the log is
// reset to when a role is chosen.
func buildWelcomeMessage(role entity.Role) string {
	return fmt.Sprintf(
		"You are the '%s'. I will help you with making ordering decisions.\n\n"+
			"Please share the current week's context including **Week, Demand, Inv/Bk (inventory or backlog), "+
			"Incoming shipment, Relevant recent orders**.",
		role,
	)
}

// buildUserVisibleReply renders the two-part summary shown in the chat.
func buildUserVisibleReply(payload *entity.StructuredPayload) string {
	return fmt.Sprintf(
		"**Order Logic:** %s\n\n**Recommended Order:** %s",
		payload.ShortQualitativeReasoning,
		payload.QualitativeAnswer,
	)
}

// buildTranscript lays out the turn-by-turn log followed by session
// metadata rows, the shape persisted to the sink and offered for download.
func buildTranscript(session *entity.Session, endTime time.Time) *entity.Transcript {
	rows := make([]entity.TranscriptRow, 0, len(session.Messages)+6)
	for _, msg := range session.Messages {
		rows = append(rows, entity.TranscriptRow{Role: msg.Role, Content: msg.Content})
	}

	rows = append(rows,
		entity.TranscriptRow{Role: "Mode", Content: session.Mode},
		entity.TranscriptRow{Role: "Section", Content: session.Section},
		entity.TranscriptRow{Role: "Participant Role", Content: string(session.SelectedRole)},
		entity.TranscriptRow{Role: "Start Time", Content: session.StartTime.Format(metadataLayout)},
		entity.TranscriptRow{Role: "End Time", Content: endTime.Format(metadataLayout)},
		entity.TranscriptRow{Role: "Duration", Content: endTime.Sub(session.StartTime).String()},
	)

	return &entity.Transcript{Rows: rows}
}

// transcriptObjectName builds the sink key for the tabular export.
func transcriptObjectName(session *entity.Session, at time.Time) string {
	return fmt.Sprintf("beergame_qualitative_%s_P%s_%s_%s.csv",
		sanitizeForFilename(session.Section),
		sanitizeForFilename(session.ParticipantID),
		sanitizeForFilename(string(session.SelectedRole)),
		at.Format(timestampLayout),
	)
}

// payloadObjectName builds the sink key for the structured JSON document.
func payloadObjectName(session *entity.Session, at time.Time) string {
	return fmt.Sprintf("beergame_qualitative_structured_%s_P%s_%s_%s.json",
		sanitizeForFilename(session.Section),
		sanitizeForFilename(session.ParticipantID),
		sanitizeForFilename(string(session.SelectedRole)),
		at.Format(timestampLayout),
	)
}
