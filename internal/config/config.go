package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// ReportProviderOpenAI grades reports with the OpenAI-compatible chat endpoint.
	ReportProviderOpenAI = "openai"
	// ReportProviderAnthropic grades reports with Claude.
	ReportProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env       string `envconfig:"ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"8080"`
	PublicDir string `envconfig:"PUBLIC_DIR" default:"./public"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Chat, transcription and speech (OpenAI-compatible endpoint)
	GroqAPIKey         string        `envconfig:"GROQ_API_KEY"`
	LLMBaseURL         string        `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	ChatModel          string        `envconfig:"CHAT_MODEL" default:"llama-3.3-70b-versatile"`
	TranscriptionModel string        `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-large-v3-turbo"`
	SpeechModel        string        `envconfig:"SPEECH_MODEL" default:"playai-tts"`
	SpeechVoice        string        `envconfig:"SPEECH_VOICE" default:"Fritz-PlayAI"`
	SpeechEnabled      bool          `envconfig:"SPEECH_ENABLED" default:"true"`
	LLMMaxRetries      int           `envconfig:"LLM_MAX_RETRIES" default:"2"`
	LLMRequestTimeout  time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"60s"`

	// Report grading
	ReportProvider  string `envconfig:"REPORT_PROVIDER" default:"openai"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5-20250929"`

	// Assessment rules
	AnswerWindow time.Duration `envconfig:"ANSWER_WINDOW" default:"30s"`
	IdleWindow   time.Duration `envconfig:"IDLE_WINDOW" default:"10s"`
	MaxQuestions int           `envconfig:"MAX_QUESTIONS" default:"15"`

	// Session registry
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	MaxAudioSize int64         `envconfig:"MAX_AUDIO_BYTES" default:"26214400"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks values envconfig cannot check on its own. API keys are
// not required here; they may still come from the keychain.
func (c *Config) Validate() error {
	var errs []error

	if c.ReportProvider != ReportProviderOpenAI && c.ReportProvider != ReportProviderAnthropic {
		errs = append(errs, fmt.Errorf("REPORT_PROVIDER must be %q or %q, got %q",
			ReportProviderOpenAI, ReportProviderAnthropic, c.ReportProvider))
	}

	if c.AnswerWindow <= 0 || c.IdleWindow <= 0 {
		errs = append(errs, errors.New("ANSWER_WINDOW and IDLE_WINDOW must be positive"))
	}

	if c.MaxQuestions <= 0 {
		errs = append(errs, errors.New("MAX_QUESTIONS must be positive"))
	}

	if c.MaxAudioSize <= 0 {
		errs = append(errs, errors.New("MAX_AUDIO_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		// Production CSP; synthesized speech is played from blob: URLs
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data:; " +
			"media-src 'self' blob: data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"media-src 'self' blob: data:"
}
