package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/pkg/extractor"
	"github.com/opmgt/beergame-coach/internal/pkg/validator"
	"go.uber.org/zap"
)

// Generator orchestrates one structured generation: primary backend first,
// fallback backend only when the primary rejects the request itself.
// Malformed or schema-violating output is not retried on the fallback: a
// different backend is not guaranteed to fix a content-quality problem, and
// blind retries double latency and cost for what is usually a prompting
// defect.
type Generator struct {
	primary   ChatBackend
	fallback  ChatBackend
	modes     ModeProvider
	validator *validator.Validator
	logger    *zap.Logger
}

func NewGenerator(
	primary ChatBackend,
	fallback ChatBackend,
	modes ModeProvider,
	validator *validator.Validator,
	logger *zap.Logger,
) *Generator {
	return &Generator{
		primary:   primary,
		fallback:  fallback,
		modes:     modes,
		validator: validator,
		logger:    logger,
	}
}

// GenerateResult is a validated payload plus fallback advisory data.
type GenerateResult struct {
	Payload      *entity.StructuredPayload
	UsedFallback bool
	// Notice is a user-visible advisory set when the fallback path ran.
	Notice string
}

// Generate builds the request message list and runs the two-backend
// protocol. Terminal failures wrap entity.ErrGenerationFailed.
func (g *Generator) Generate(
	ctx context.Context,
	conversation []entity.ChatMessage,
	systemInstruction string,
	modeKey string,
) (*GenerateResult, error) {
	mode, err := g.modes.Mode(modeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrGenerationFailed, err)
	}

	req := &entity.GenerateRequest{
		Input: buildInput(conversation, systemInstruction, mode.OutputInstruction),
	}

	rawText, primaryErr := g.primary.Generate(ctx, req)
	if primaryErr == nil {
		payload, err := g.extractAndValidate(rawText)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrGenerationFailed, err)
		}
		return &GenerateResult{Payload: payload}, nil
	}

	if !errors.Is(primaryErr, entity.ErrBackendRejected) {
		return nil, fmt.Errorf("%w: %w", entity.ErrGenerationFailed, primaryErr)
	}

	// The primary backend rejected the request. This is the one failure
	// class known to be backend-specific, so try the fallback once with the
	// same message list. The fallback connector carries no effort hint.
	notice := fmt.Sprintf("Model %q failed for this request. Retrying with %q.",
		g.primary.Model(), g.fallback.Model())
	ctxzap.Warn(ctx, "primary backend rejected request, falling back",
		zap.String("primary_model", g.primary.Model()),
		zap.String("fallback_model", g.fallback.Model()),
		zap.Error(primaryErr),
	)

	rawText, err = g.fallback.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback after rejection: %w", entity.ErrGenerationFailed, err)
	}

	payload, err := g.extractAndValidate(rawText)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback output: %w", entity.ErrGenerationFailed, err)
	}

	return &GenerateResult{
		Payload:      payload,
		UsedFallback: true,
		Notice:       notice,
	}, nil
}

func (g *Generator) extractAndValidate(rawText string) (*entity.StructuredPayload, error) {
	parsed, err := extractor.FirstJSONObject(rawText)
	if err != nil {
		return nil, err
	}
	return g.validator.ValidatePayload(parsed)
}

// buildInput assembles the backend message list: the role-augmented system
// instruction, the mode's output-schema instruction, then every prior
// user/assistant turn. System-authored history entries are not replayed.
func buildInput(conversation []entity.ChatMessage, systemInstruction, outputInstruction string) []entity.ChatMessage {
	input := make([]entity.ChatMessage, 0, len(conversation)+2)
	input = append(input,
		entity.ChatMessage{Role: entity.MessageRoleSystem, Content: systemInstruction},
		entity.ChatMessage{Role: entity.MessageRoleSystem, Content: outputInstruction},
	)

	for _, msg := range conversation {
		if msg.Role == entity.MessageRoleUser || msg.Role == entity.MessageRoleAssistant {
			input = append(input, entity.ChatMessage{Role: msg.Role, Content: msg.Content})
		}
	}

	return input
}
