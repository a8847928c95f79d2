package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDraft() map[string]any {
	return map[string]any{
		"quantitative_reasoning":       "Demand is 8, pipeline covers 4, so order 8 + (8-4) = 12.",
		"qualitative_reasoning":        "Demand rose while the pipeline is thin, so order above demand.",
		"short_quantitative_reasoning": "Order demand plus the pipeline gap.",
		"short_qualitative_reasoning":  "Order a bit above demand.",
		"quantitative_answer":          "12",
		"qualitative_answer":           "Increase your order moderately",
	}
}

func TestValidatePayloadAccepted(t *testing.T) {
	v := New()

	payload, err := v.ValidatePayload(fullDraft())
	require.NoError(t, err)
	assert.Equal(t, "12", payload.QuantitativeAnswer)
	assert.Equal(t, "Increase your order moderately", payload.QualitativeAnswer)
	assert.Equal(t, "Order demand plus the pipeline gap.", payload.ShortQuantitativeReasoning)
}

func TestValidatePayloadQuantitativeAnswerFormat(t *testing.T) {
	accepted := []string{"12", "-3", "0", "  7  "}
	for _, answer := range accepted {
		draft := fullDraft()
		draft["quantitative_answer"] = answer
		payload, err := New().ValidatePayload(draft)
		require.NoError(t, err, "answer %q should validate", answer)
		assert.Equal(t, strings.TrimSpace(answer), payload.QuantitativeAnswer)
	}

	rejected := []string{"12 cases", "12.0", "", "twelve", "+7", "7-", "1 2"}
	for _, answer := range rejected {
		draft := fullDraft()
		draft["quantitative_answer"] = answer
		_, err := New().ValidatePayload(draft)
		require.Error(t, err, "answer %q should be rejected", answer)
		assert.True(t, errors.Is(err, entity.ErrSchemaViolation))
	}
}

func TestValidatePayloadQualitativeAnswerDigits(t *testing.T) {
	draft := fullDraft()
	draft["qualitative_answer"] = "order 10% more"
	_, err := New().ValidatePayload(draft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSchemaViolation))

	draft["qualitative_answer"] = "order slightly more than last week"
	_, err = New().ValidatePayload(draft)
	assert.NoError(t, err)
}

func TestValidatePayloadShortReasoningBackfill(t *testing.T) {
	long := strings.Repeat("x", 239) + " tail that exceeds the limit"

	draft := fullDraft()
	draft["quantitative_reasoning"] = long
	draft["short_quantitative_reasoning"] = ""
	delete(draft, "short_qualitative_reasoning")
	draft["qualitative_reasoning"] = "short enough"

	payload, err := New().ValidatePayload(draft)
	require.NoError(t, err)

	// Truncated to 240 characters, then trimmed: the trailing space at
	// position 240 is dropped.
	assert.Equal(t, strings.Repeat("x", 239), payload.ShortQuantitativeReasoning)
	assert.Equal(t, "short enough", payload.ShortQualitativeReasoning)
}

func TestValidatePayloadMissingKeysDefaultEmpty(t *testing.T) {
	draft := map[string]any{
		"quantitative_answer": "4",
		"qualitative_answer":  "hold steady",
	}

	payload, err := New().ValidatePayload(draft)
	require.NoError(t, err)
	assert.Empty(t, payload.QuantitativeReasoning)
	assert.Empty(t, payload.ShortQuantitativeReasoning)
	assert.Empty(t, payload.ShortQualitativeReasoning)
}

func TestValidatePayloadCoercesNonStrings(t *testing.T) {
	draft := fullDraft()
	draft["quantitative_answer"] = float64(12)

	payload, err := New().ValidatePayload(draft)
	require.NoError(t, err)
	assert.Equal(t, "12", payload.QuantitativeAnswer)
}
