package render

import (
	"fmt"
	"strings"

	"github.com/opmgt/beergame-coach/internal/entity"
)

// Static chat texts.
const (
	MsgWelcome = "👋 Welcome to the Beer Game coach!\n\nPick your class section to begin."

	MsgAskParticipant = "Please send your participant ID (the number on your game sheet)."

	MsgPickRole = "Which supply chain role are you playing this week?"

	MsgSessionFinished = "✅ Session finished. Good luck with your orders!"

	MsgHelp = `🤖 Beer Game coach commands:

/start - Begin a new coaching session
/help - Show this help
/end - Finish the current session

How it works:
1. Pick your class section and send your participant ID
2. Choose your supply chain role
3. Describe the current week (demand, inventory, incoming shipments)
4. Get an order recommendation with the logic behind it

The role is locked after your first message.`

	ErrGeneric      = "❌ Something went wrong. Please try again or press /start"
	ErrNoSession    = "No active session. Use /start"
	ErrRoleLocked   = "🔒 Your role is locked for this session. Use /end and /start to play another role."
	ErrRoleRequired = "Please pick your role first."
)

// Turn renders a completed coaching turn, notices first so fallback and
// persistence warnings are not buried under the recommendation.
func Turn(turn *entity.TurnResult) string {
	var sb strings.Builder
	for _, notice := range turn.Notices {
		sb.WriteString("⚠️ ")
		sb.WriteString(notice)
		sb.WriteString("\n\n")
	}
	sb.WriteString(turn.Reply)
	return sb.String()
}

// SessionEnded renders the end-of-session summary.
func SessionEnded(result *entity.EndSessionDTO) string {
	var sb strings.Builder
	sb.WriteString(MsgSessionFinished)
	for _, notice := range result.Notices {
		sb.WriteString("\n⚠️ ")
		sb.WriteString(notice)
	}
	if result.SavedTranscript != "" {
		sb.WriteString(fmt.Sprintf("\n💾 Transcript saved as %s", result.SavedTranscript))
	}
	return sb.String()
}
