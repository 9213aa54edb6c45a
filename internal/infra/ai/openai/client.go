package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
	"github.com/adityarama/tutorlens/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client is the OpenAI-backed dispatcher. Completions are requested in
// JSON mode; the content still flows through the normalizer because
// models occasionally wrap or escape the object anyway.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Dispatch(ctx context.Context, jobType domain.Type, payload map[string]any) (json.RawMessage, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt(jobType)},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(jobType, payload)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, Err: fmt.Errorf("create chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.DispatchError{Type: jobType, Err: fmt.Errorf("empty completion response")}
	}

	// wrap as {"output": ...} so the response shape matches the
	// webhook upstream and the same extraction strategies apply
	out, err := json.Marshal(map[string]string{"output": resp.Choices[0].Message.Content})
	if err != nil {
		return nil, &domain.DispatchError{Type: jobType, Err: err}
	}
	return out, nil
}
