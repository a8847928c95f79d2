package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/entity"
	"go.uber.org/zap"
)

// MockConnector is a canned generative backend for local development and
// tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Model() string {
	return "mock"
}

// Generate returns a fixed, schema-valid structured payload.
func (m *MockConnector) Generate(ctx context.Context, req *entity.GenerateRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating response", zap.Int("input_messages", len(req.Input)))

	payload := &entity.StructuredPayload{
		QuantitativeReasoning:      "Weekly demand is 8 and the incoming pipeline covers 4, so order 8 + (8 - 4) = 12 cases.",
		QualitativeReasoning:       "Demand has stabilized above your pipeline coverage, so order somewhat above current demand to rebuild the buffer without overshooting.",
		ShortQuantitativeReasoning: "Order demand plus the pipeline shortfall.",
		ShortQualitativeReasoning:  "Order a bit above demand to rebuild your buffer.",
		QuantitativeAnswer:         "12",
		QualitativeAnswer:          "Increase your order moderately",
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal mock payload: %w", err)
	}

	// Wrap in prose the way real backends occasionally do, to exercise the
	// extractor path end to end.
	return "Here is my recommendation:\n" + string(raw), nil
}
