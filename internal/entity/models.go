package entity

import (
	"time"
)

// Role is the Beer Game supply chain role assigned to a participant.
type Role string

const (
	// RolePlaceholder means no role has been chosen yet.
	RolePlaceholder Role = ""

	RoleRetailer    Role = "Retailer"
	RoleWholesaler  Role = "Wholesaler"
	RoleDistributor Role = "Distributor"
	RoleFactory     Role = "Factory"
)

// Roles lists the selectable roles in supply chain order.
var Roles = []Role{RoleRetailer, RoleWholesaler, RoleDistributor, RoleFactory}

// ParseRole converts a free-form string to a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return RolePlaceholder, ErrInvalidRole
}

// Selected reports whether the role is a real role, not the placeholder.
func (r Role) Selected() bool {
	return r != RolePlaceholder
}

// Message roles on the conversation log and backend wire.
const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// ChatMessage is a single role-tagged entry of the conversation log.
// Assistant entries additionally carry the full structured payload that
// produced the rendered content; only Role and Content go back to the
// backend on replay.
type ChatMessage struct {
	Role    string             `json:"role"`
	Content string             `json:"content"`
	Payload *StructuredPayload `json:"assistant_output,omitempty"`
}

// StructuredPayload is the six-field contract returned by the generative
// backend. All six keys are always present; the reasoning fields are free
// text, the answer fields carry format constraints enforced by the payload
// validator.
type StructuredPayload struct {
	QuantitativeReasoning      string `json:"quantitative_reasoning"`
	QualitativeReasoning       string `json:"qualitative_reasoning"`
	ShortQuantitativeReasoning string `json:"short_quantitative_reasoning"`
	ShortQualitativeReasoning  string `json:"short_qualitative_reasoning"`
	QuantitativeAnswer         string `json:"quantitative_answer"`
	QualitativeAnswer          string `json:"qualitative_answer"`
}

// Session is the conversation state of one coaching session. It is owned by
// the coach usecase; handlers only ever see DTO copies.
type Session struct {
	ID            string
	Section       string
	ParticipantID string
	Mode          string

	SelectedRole Role
	// WelcomedRole is the role the current welcome message was synthesized
	// for. It trails SelectedRole only until the next role change is applied.
	WelcomedRole Role
	RoleLocked   bool

	StartTime time.Time
	Messages  []ChatMessage
}

// TurnResult is what the controller hands back to the caller after a
// successful turn.
type TurnResult struct {
	// Reply is the rendered two-part user-visible summary.
	Reply string
	// Payload is the full validated six-field payload.
	Payload *StructuredPayload
	// UsedFallback is set when the fallback backend produced the payload.
	UsedFallback bool
	// Notices carries non-fatal advisory messages (fallback taken,
	// persistence warnings).
	Notices []string
	// SavedTranscript and SavedPayload name the sink objects written for
	// this turn, empty when the write was skipped or failed.
	SavedTranscript string
	SavedPayload    string
}

// StructuredDocument is the keyed JSON document persisted to the sink after
// each turn. Field names are part of the stored format.
type StructuredDocument struct {
	Mode            string             `json:"mode"`
	Section         string             `json:"section"`
	ParticipantID   string             `json:"pid"`
	Role            string             `json:"role"`
	Timestamp       string             `json:"timestamp"`
	UserInput       string             `json:"user_input"`
	AssistantOutput *StructuredPayload `json:"assistant_output"`
}

// Transcript is the tabular view of a session: the turn-by-turn log
// followed by session metadata rows, mirroring the persisted CSV layout.
type Transcript struct {
	Rows []TranscriptRow
}

// TranscriptRow is one role/content line of the tabular export.
type TranscriptRow struct {
	Role    string
	Content string
}

// ResultFormat selects a transcript export format.
type ResultFormat string

const (
	FormatCSV      ResultFormat = "csv"
	FormatMarkdown ResultFormat = "md"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)
