package coach

import (
	"context"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/prompts"
)

// ChatBackend is one generative backend instance. Primary and fallback are
// two instances with different cost/compatibility tradeoffs.
type ChatBackend interface {
	// Model names the backing model, used in advisory notices.
	Model() string
	// Generate returns the raw output text, or entity.ErrBackendRejected
	// when the backend itself rejected the request.
	Generate(ctx context.Context, req *entity.GenerateRequest) (string, error)
}

// BlobStore is the persistence sink. Failures are non-fatal to callers.
type BlobStore interface {
	Upload(ctx context.Context, objectName, contentType string, body []byte) (string, error)
}

// ModeProvider resolves a mode key to its instruction strings.
type ModeProvider interface {
	Mode(key string) (prompts.Mode, error)
}
