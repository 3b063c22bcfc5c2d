package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/alkime/assessor/internal/interview"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Grader handles Anthropic API requests for the final assessment report.
type Grader struct {
	apiKey     string
	model      anthropic.Model
	baseURL    string
	maxRetries int
}

// NewGrader creates a new report grader.
func NewGrader(apiKey, model string, maxRetries int) *Grader {
	return &Grader{
		apiKey:     apiKey,
		model:      anthropic.Model(model),
		maxRetries: maxRetries,
	}
}

// WithBaseURL points the grader at a different Anthropic-compatible endpoint.
func (g *Grader) WithBaseURL(baseURL string) *Grader {
	g.baseURL = baseURL

	return g
}

// Complete grades the transcript. Claude expects a user turn first, so the
// transcript is sent as one labelled user message.
func (g *Grader) Complete(ctx context.Context, instruction string, turns []interview.Turn) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("API key required: set ANTHROPIC_API_KEY or run 'assessor config set-key anthropic'")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(g.apiKey),
		option.WithMaxRetries(g.maxRetries),
	}
	if g.baseURL != "" {
		opts = append(opts, option.WithBaseURL(g.baseURL))
	}

	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: instruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(renderTranscript(turns))),
		},
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to grade assessment via Anthropic API: %w", err)
	}

	// Extract text from response
	if len(resp.Content) == 0 {
		return "", errors.New("empty response from Anthropic API")
	}

	textBlock, ok := resp.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", errors.New("unexpected response type from Anthropic API")
	}

	return textBlock.Text, nil
}
