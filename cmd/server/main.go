package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/alkime/assessor/internal/config"
	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/internal/keyring"
	"github.com/alkime/assessor/internal/logger"
	"github.com/alkime/assessor/internal/server"
	"github.com/alkime/assessor/internal/store"
)

// CLI defines the assessor command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the assessment web server"`
	Config ConfigCmd `cmd:"" help:"Manage configuration"`
}

// ServeCmd runs the HTTP server. Settings come from the environment.
type ServeCmd struct{}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	lg := logger.SetupLogger(cfg)

	// Resolve API keys: environment variables take priority, fallback to keychain
	cfg.GroqAPIKey = keyring.Resolve(cfg.GroqAPIKey, keyring.Groq)
	if cfg.ReportProvider == config.ReportProviderAnthropic {
		cfg.AnthropicAPIKey = keyring.Resolve(cfg.AnthropicAPIKey, keyring.Anthropic)
	}

	if missing := missingKeys(cfg); len(missing) > 0 {
		return fmt.Errorf("missing API keys: %s. Set via environment variables or run 'assessor config set-key'",
			strings.Join(missing, ", "))
	}

	lg.Info("Starting assessor server",
		"env", cfg.Env,
		"port", cfg.Port,
		"chat_model", cfg.ChatModel,
		"report_provider", cfg.ReportProvider,
		"speech_enabled", cfg.SpeechEnabled,
	)

	ctrl := interview.NewController(buildCollaborators(cfg), limitsFrom(cfg), lg)
	sessions := store.NewSessionStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Go(func() {
		sessions.Janitor(ctx, janitorInterval(cfg.SessionTTL), cfg.SessionTTL)
	})

	err = server.Run(ctx, server.New(cfg, lg, sessions, ctrl))
	stop()
	wg.Wait()

	return err
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey    SetKeyCmd    `cmd:"" help:"Store an API key in system keychain"`
	DeleteKey DeleteKeyCmd `cmd:"" name:"delete-key" help:"Remove an API key from system keychain"`
	ListKeys  ListKeysCmd  `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"groq,anthropic" help:"Service name (groq or anthropic)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// DeleteKeyCmd removes an API key from the system keychain.
type DeleteKeyCmd struct {
	Service string `arg:"" enum:"groq,anthropic" help:"Service name (groq or anthropic)"`
}

// Run executes the delete-key command.
func (c *DeleteKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Delete(apiKey); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	fmt.Printf("%s API key removed from keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'assessor config set-key <service> <key>' to configure.")
	}

	return nil
}

func main() {
	// Text logger until serve replaces it with the configured JSON logger
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("assessor"),
		kong.Description("Timed voice technical assessment server."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
