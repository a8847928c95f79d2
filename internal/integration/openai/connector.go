package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/integration/common"
	pkghttp "github.com/opmgt/beergame-coach/pkg/http"
	"go.uber.org/zap"
)

const responsesEndpoint = "/v1/responses"

// Connector is one generative backend: an OpenAI-compatible Responses API
// bound to a single model. Primary and fallback backends are two Connector
// instances with different models and effort settings.
type Connector struct {
	config    config.OpenAIConnectorConfig
	connector *pkghttp.Connector
	model     string
	effort    string
	logger    *zap.Logger
}

func NewConnector(
	cfg config.OpenAIConnectorConfig,
	model string,
	effort string,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		model:     model,
		effort:    effort,
		logger:    logger,
	}
}

// Model returns the model this backend generates with.
func (c *Connector) Model() string {
	return c.model
}

type reasoningOpts struct {
	Effort string `json:"effort"`
}

type responsesRequest struct {
	Model     string               `json:"model"`
	Input     []entity.ChatMessage `json:"input"`
	Reasoning *reasoningOpts       `json:"reasoning,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// outputText concatenates the text parts of the response output, matching
// the SDK convenience accessor.
func (r *responsesResponse) outputText() string {
	var sb strings.Builder
	for _, item := range r.Output {
		for _, part := range item.Content {
			if part.Type == "output_text" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

// Generate invokes the model with the given message list and returns the
// raw output text. Invalid-request rejections (unsupported parameter,
// content policy, model unavailability) are reported as
// entity.ErrBackendRejected so the caller can switch backends.
func (c *Connector) Generate(ctx context.Context, req *entity.GenerateRequest) (string, error) {
	ctxzap.Info(ctx, "generating response via backend",
		zap.String("model", c.model),
		zap.Int("input_messages", len(req.Input)),
	)

	body := &responsesRequest{
		Model: c.model,
		Input: req.Input,
	}
	if c.effort != entity.EffortNone {
		body.Reasoning = &reasoningOpts{Effort: c.effort}
	}

	var resp responsesResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, responsesEndpoint, body, &resp)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && isInvalidRequest(httpErr.StatusCode) {
			return "", fmt.Errorf("%w: model %q: %s", entity.ErrBackendRejected, c.model, httpErr.Message)
		}
		return "", fmt.Errorf("backend call failed: %w", err)
	}

	text := resp.outputText()
	if text == "" {
		return "", fmt.Errorf("backend returned empty output for model %q", c.model)
	}

	ctxzap.Info(ctx, "backend responded",
		zap.String("model", c.model),
		zap.Int("output_length", len(text)),
	)

	return text, nil
}

// isInvalidRequest matches the invalid-request error class: the one failure
// known to be model-specific and recoverable by switching backends.
func isInvalidRequest(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusNotFound
}
