package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"candidature-ai/internal/config"
	"candidature-ai/internal/llm/types"
	"candidature-ai/internal/logging"
)

// DefaultClaudeModel is used when no Claude model is configured
const DefaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeProvider implements types.Provider using Anthropic's Messages API
type ClaudeProvider struct {
	client anthropic.Client
	model  string
	apiKey string
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance. Retries are left
// to the caller, so the SDK's own retry loop is disabled.
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	model := cfg.LLM.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = DefaultClaudeModel
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		apiKey: cfg.LLM.APIKey,
		logger: logging.GetGlobalLogger(),
	}
}

// Complete sends one message to Claude. Claude has no JSON response mode, so
// JSON output is forced by prefilling the assistant turn with an opening brace.
func (cp *ClaudeProvider) Complete(ctx context.Context, req types.Completion) (string, error) {
	if cp.apiKey == "" {
		return "", types.ErrMissingAPIKey
	}
	startTime := time.Now()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.User},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	prefill := ""
	if req.JSONMode {
		prefill = "{"
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prefill},
			}},
			Role: anthropic.MessageParamRoleAssistant,
		})
	}

	response, err := cp.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &types.StatusError{Provider: cp.Name(), StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in Claude response")
	}

	cp.logger.Debug("Claude completion received", map[string]interface{}{
		"model":           cp.model,
		"output_tokens":   response.Usage.OutputTokens,
		"stop_reason":     string(response.StopReason),
		"processing_time": time.Since(startTime).String(),
	})

	return prefill + text.String(), nil
}

// Name returns the name of the provider
func (cp *ClaudeProvider) Name() string {
	return "claude"
}
