package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
)

// Speaker synthesizes interviewer lines to MP3 audio.
type Speaker struct {
	endpoint Endpoint
	model    string
	voice    string
}

// NewSpeaker creates a text-to-speech client.
func NewSpeaker(endpoint Endpoint, model, voice string) *Speaker {
	return &Speaker{
		endpoint: endpoint,
		model:    model,
		voice:    voice,
	}
}

// Synthesize returns MP3 audio for text.
func (s *Speaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.endpoint.APIKey == "" {
		return nil, errors.New("API key required: set GROQ_API_KEY or run 'assessor config set-key groq'")
	}

	client := s.endpoint.client()

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}

	resp, err := client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized speech: %w", err)
	}

	return audio, nil
}
