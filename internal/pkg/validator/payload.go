// Package validator enforces the six-key structured response contract on
// parsed backend output.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opmgt/beergame-coach/internal/entity"
)

const defaultShortReasoningLimit = 240

var (
	exactIntegerRe = regexp.MustCompile(`^-?[0-9]+$`)
	anyDigitRe     = regexp.MustCompile(`[0-9]`)
)

// Validator checks parsed payloads against the response schema.
type Validator struct {
	shortReasoningLimit int
}

func New() *Validator {
	return &Validator{shortReasoningLimit: defaultShortReasoningLimit}
}

// ValidatePayload coerces and checks a parsed backend object into a
// StructuredPayload. Missing keys default to empty strings; values are
// coerced to strings and trimmed. The short reasoning fields are backfilled
// by truncating their long counterparts. Returns entity.ErrSchemaViolation
// when quantitative_answer is not one exact integer or qualitative_answer
// contains digits. Reasoning fields are deliberately unchecked free text.
func (v *Validator) ValidatePayload(parsed map[string]any) (*entity.StructuredPayload, error) {
	payload := &entity.StructuredPayload{
		QuantitativeReasoning:      cleanField(parsed, "quantitative_reasoning"),
		QualitativeReasoning:       cleanField(parsed, "qualitative_reasoning"),
		ShortQuantitativeReasoning: cleanField(parsed, "short_quantitative_reasoning"),
		ShortQualitativeReasoning:  cleanField(parsed, "short_qualitative_reasoning"),
		QuantitativeAnswer:         cleanField(parsed, "quantitative_answer"),
		QualitativeAnswer:          cleanField(parsed, "qualitative_answer"),
	}

	if payload.ShortQuantitativeReasoning == "" {
		payload.ShortQuantitativeReasoning = truncate(payload.QuantitativeReasoning, v.shortReasoningLimit)
	}
	if payload.ShortQualitativeReasoning == "" {
		payload.ShortQualitativeReasoning = truncate(payload.QualitativeReasoning, v.shortReasoningLimit)
	}

	if !exactIntegerRe.MatchString(payload.QuantitativeAnswer) {
		return nil, fmt.Errorf("%w: quantitative_answer must be a single exact integer with no extra text", entity.ErrSchemaViolation)
	}

	if anyDigitRe.MatchString(payload.QualitativeAnswer) {
		return nil, fmt.Errorf("%w: qualitative_answer must be directional only and must not include exact numbers", entity.ErrSchemaViolation)
	}

	return payload, nil
}

func cleanField(parsed map[string]any, key string) string {
	value, ok := parsed[key]
	if !ok || value == nil {
		return ""
	}

	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}

	return strings.TrimSpace(s)
}

// truncate cuts s to at most limit characters (not bytes) and trims the
// result.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return strings.TrimSpace(string(runes))
}
