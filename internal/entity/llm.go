package entity

// Reasoning effort hints for backends that support them. A backend
// configured with EffortNone omits the hint entirely, since not every
// model accepts it.
const (
	EffortMinimal = "minimal"
	EffortNone    = ""
)

// GenerateRequest is a single generation call against one backend.
type GenerateRequest struct {
	// Input is the ordered role-tagged message list, system messages first.
	Input []ChatMessage `json:"input"`
}
