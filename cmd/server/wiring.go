package main

import (
	"time"

	"github.com/alkime/assessor/internal/config"
	"github.com/alkime/assessor/internal/content"
	"github.com/alkime/assessor/internal/interview"
)

const (
	minJanitorInterval = time.Minute
	maxJanitorInterval = 15 * time.Minute
)

// buildCollaborators wires the model-backed collaborators from config. The
// coordinator and interviewer share one chat client; the grader uses the
// same model with the instruction last, or Claude when
// REPORT_PROVIDER=anthropic. Speech is left nil when disabled, which
// runs the interview silently.
func buildCollaborators(cfg *config.Config) interview.Collaborators {
	endpoint := content.Endpoint{
		APIKey:     cfg.GroqAPIKey,
		BaseURL:    cfg.LLMBaseURL,
		MaxRetries: cfg.LLMMaxRetries,
		Timeout:    cfg.LLMRequestTimeout,
	}

	chat := content.NewChat(endpoint, cfg.ChatModel)

	collab := interview.Collaborators{
		Coordinator: chat,
		Interviewer: chat,
		Grader:      content.NewGradingChat(endpoint, cfg.ChatModel),
		Transcriber: content.NewTranscriber(endpoint, cfg.TranscriptionModel),
	}

	if cfg.ReportProvider == config.ReportProviderAnthropic {
		collab.Grader = content.NewGrader(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMMaxRetries)
	}

	if cfg.SpeechEnabled {
		collab.Synthesizer = content.NewSpeaker(endpoint, cfg.SpeechModel, cfg.SpeechVoice)
	}

	return collab
}

func limitsFrom(cfg *config.Config) interview.Limits {
	return interview.Limits{
		AnswerWindow: cfg.AnswerWindow,
		IdleWindow:   cfg.IdleWindow,
		MaxQuestions: cfg.MaxQuestions,
	}.WithDefaults()
}

func missingKeys(cfg *config.Config) []string {
	var missing []string
	if cfg.GroqAPIKey == "" {
		missing = append(missing, "groq")
	}

	if cfg.ReportProvider == config.ReportProviderAnthropic && cfg.AnthropicAPIKey == "" {
		missing = append(missing, "anthropic")
	}

	return missing
}

// janitorInterval sweeps a few times per TTL, within sane bounds.
func janitorInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, minJanitorInterval), maxJanitorInterval)
}
