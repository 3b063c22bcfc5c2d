package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/alkime/assessor/internal/interview"
	"github.com/openai/openai-go"
)

// Chat produces replies through an OpenAI-compatible chat completion API.
type Chat struct {
	endpoint Endpoint
	model    string
	messages func(string, []interview.Turn) []openai.ChatCompletionMessageParamUnion
}

// NewChat creates a chat client for the given model.
func NewChat(endpoint Endpoint, model string) *Chat {
	return &Chat{
		endpoint: endpoint,
		model:    model,
		messages: chatMessages,
	}
}

// NewGradingChat creates a chat client for report grading. The instruction
// is sent as the final user message, after the transcript.
func NewGradingChat(endpoint Endpoint, model string) *Chat {
	return &Chat{
		endpoint: endpoint,
		model:    model,
		messages: gradingMessages,
	}
}

// Complete sends the transcript with the instruction to the model.
func (c *Chat) Complete(ctx context.Context, instruction string, turns []interview.Turn) (string, error) {
	if c.endpoint.APIKey == "" {
		return "", errors.New("API key required: set GROQ_API_KEY or run 'assessor config set-key groq'")
	}

	client := c.endpoint.client()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: c.messages(instruction, turns),
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
