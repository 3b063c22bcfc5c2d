// Package content talks to the hosted models behind the interview: chat
// completion, speech-to-text, text-to-speech and report grading.
package content

import (
	"strings"
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Endpoint describes an OpenAI-compatible API (Groq by default).
type Endpoint struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
}

func (e Endpoint) client() openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(e.APIKey),
		option.WithMaxRetries(e.MaxRetries),
	}

	if e.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(e.BaseURL))
	}

	if e.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(e.Timeout))
	}

	return openai.NewClient(opts...)
}

// chatMessages maps a transcript to chat messages, instruction first.
func chatMessages(instruction string, turns []interview.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(instruction))

	return append(messages, transcriptMessages(turns)...)
}

// gradingMessages puts the instruction after the transcript as a user turn,
// so the conversation never ends on an interviewer line.
func gradingMessages(instruction string, turns []interview.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := transcriptMessages(turns)

	return append(messages, openai.UserMessage(instruction))
}

func transcriptMessages(turns []interview.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)

	for _, turn := range turns {
		if turn.Speaker == interview.SpeakerCandidate {
			messages = append(messages, openai.UserMessage(turn.Text))
		} else {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}

	return messages
}

// renderTranscript formats turns as labelled lines for single-prompt models.
func renderTranscript(turns []interview.Turn) string {
	var b strings.Builder

	for _, turn := range turns {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(string(turn.Speaker)))
		b.WriteString("] ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}

	return b.String()
}
