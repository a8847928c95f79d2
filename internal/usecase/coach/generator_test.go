package coach

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/pkg/validator"
	"github.com/opmgt/beergame-coach/internal/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validOutput = `{
	"quantitative_reasoning": "Demand 8, pipeline 4, order 8 + (8-4) = 12.",
	"qualitative_reasoning": "Demand outpaces the pipeline, order above demand.",
	"short_quantitative_reasoning": "Demand plus pipeline gap.",
	"short_qualitative_reasoning": "Order a bit above demand.",
	"quantitative_answer": "12",
	"qualitative_answer": "Increase moderately"
}`

type fakeBackend struct {
	model   string
	output  string
	err     error
	calls   int
	lastReq *entity.GenerateRequest
}

func (f *fakeBackend) Model() string { return f.model }

func (f *fakeBackend) Generate(_ context.Context, req *entity.GenerateRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func newTestGenerator(primary, fallback *fakeBackend) *Generator {
	return NewGenerator(primary, fallback, prompts.NewProvider(nil), validator.New(), zap.NewNop())
}

func TestGeneratePrimarySuccess(t *testing.T) {
	primary := &fakeBackend{model: "gpt-5-mini", output: validOutput}
	fallback := &fakeBackend{model: "gpt-4o-mini"}

	result, err := newTestGenerator(primary, fallback).Generate(
		context.Background(),
		[]entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "week 3, demand 8"}},
		"base instruction",
		prompts.ModeQualitative,
	)
	require.NoError(t, err)

	assert.Equal(t, "12", result.Payload.QuantitativeAnswer)
	assert.Equal(t, "Increase moderately", result.Payload.QualitativeAnswer)
	assert.False(t, result.UsedFallback)
	assert.Empty(t, result.Notice)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls, "fallback must not run on success")
}

func TestGenerateInputMessageList(t *testing.T) {
	primary := &fakeBackend{model: "gpt-5-mini", output: validOutput}
	fallback := &fakeBackend{model: "gpt-4o-mini"}

	history := []entity.ChatMessage{
		{Role: entity.MessageRoleAssistant, Content: "welcome"},
		{Role: entity.MessageRoleSystem, Content: "stray system entry"},
		{Role: entity.MessageRoleUser, Content: "week 3"},
	}

	_, err := newTestGenerator(primary, fallback).Generate(
		context.Background(), history, "base instruction", prompts.ModeQualitative)
	require.NoError(t, err)

	input := primary.lastReq.Input
	require.Len(t, input, 4, "two system messages plus replayed user/assistant turns")
	assert.Equal(t, entity.MessageRoleSystem, input[0].Role)
	assert.Equal(t, "base instruction", input[0].Content)
	assert.Equal(t, entity.MessageRoleSystem, input[1].Role)
	assert.Contains(t, input[1].Content, "quantitative_answer")
	assert.Equal(t, "welcome", input[2].Content)
	assert.Equal(t, "week 3", input[3].Content)
}

func TestGenerateFallbackOnRejection(t *testing.T) {
	primary := &fakeBackend{
		model: "gpt-5-mini",
		err:   fmt.Errorf("%w: unsupported parameter", entity.ErrBackendRejected),
	}
	fallback := &fakeBackend{model: "gpt-4o-mini", output: validOutput}

	result, err := newTestGenerator(primary, fallback).Generate(
		context.Background(),
		[]entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "week 3"}},
		"base instruction",
		prompts.ModeQualitative,
	)
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.Notice, "gpt-5-mini")
	assert.Contains(t, result.Notice, "gpt-4o-mini")
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, primary.lastReq.Input, fallback.lastReq.Input, "fallback reuses the same message list")
}

func TestGenerateMalformedOutputDoesNotFallBack(t *testing.T) {
	primary := &fakeBackend{model: "gpt-5-mini", output: "I suggest ordering about twelve cases."}
	fallback := &fakeBackend{model: "gpt-4o-mini", output: validOutput}

	_, err := newTestGenerator(primary, fallback).Generate(
		context.Background(),
		[]entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "week 3"}},
		"base instruction",
		prompts.ModeQualitative,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrGenerationFailed))
	assert.True(t, errors.Is(err, entity.ErrMalformedOutput))
	assert.Zero(t, fallback.calls, "malformed output is a content problem, not a backend problem")
}

func TestGenerateSchemaViolationDoesNotFallBack(t *testing.T) {
	primary := &fakeBackend{
		model:  "gpt-5-mini",
		output: `{"quantitative_answer":"12 cases","qualitative_answer":"more"}`,
	}
	fallback := &fakeBackend{model: "gpt-4o-mini", output: validOutput}

	_, err := newTestGenerator(primary, fallback).Generate(
		context.Background(),
		[]entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "week 3"}},
		"base instruction",
		prompts.ModeQualitative,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrGenerationFailed))
	assert.True(t, errors.Is(err, entity.ErrSchemaViolation))
	assert.Zero(t, fallback.calls)
}

func TestGenerateFallbackFailureIsTerminal(t *testing.T) {
	primary := &fakeBackend{
		model: "gpt-5-mini",
		err:   fmt.Errorf("%w: model deprecated", entity.ErrBackendRejected),
	}
	fallback := &fakeBackend{model: "gpt-4o-mini", output: "not json either"}

	_, err := newTestGenerator(primary, fallback).Generate(
		context.Background(),
		[]entity.ChatMessage{{Role: entity.MessageRoleUser, Content: "week 3"}},
		"base instruction",
		prompts.ModeQualitative,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrGenerationFailed))
	assert.Equal(t, 1, fallback.calls, "exactly one fallback attempt")
}

func TestGenerateUnknownMode(t *testing.T) {
	primary := &fakeBackend{model: "gpt-5-mini", output: validOutput}
	fallback := &fakeBackend{model: "gpt-4o-mini"}

	_, err := newTestGenerator(primary, fallback).Generate(
		context.Background(), nil, "base instruction", "NoSuchMode")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUnknownMode))
	assert.Zero(t, primary.calls)
}
