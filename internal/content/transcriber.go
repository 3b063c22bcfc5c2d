package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/openai/openai-go"
)

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	endpoint Endpoint
	model    string
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(endpoint Endpoint, model string) *Transcriber {
	return &Transcriber{
		endpoint: endpoint,
		model:    model,
	}
}

// Transcribe transcribes one recorded answer. The payload is staged in a
// scratch file that is removed before Transcribe returns; the upload takes
// its name, and so its format hint, from that file.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	// Validate API key
	if t.endpoint.APIKey == "" {
		return "", errors.New("API key required: set GROQ_API_KEY or run 'assessor config set-key groq'")
	}

	if len(audio) == 0 {
		return "", errors.New("audio payload is empty")
	}

	file, err := stageAudio(audio)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
		if err := os.Remove(file.Name()); err != nil {
			slog.Warn("Failed to remove audio scratch file", "path", file.Name(), "error", err)
		}
	}()

	client := t.endpoint.client()

	// Create transcription request
	params := openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(t.model),
	}

	// Call Whisper API
	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}

// stageAudio writes the payload to a fresh scratch file, rewound for reading.
func stageAudio(audio []byte) (*os.File, error) {
	file, err := os.CreateTemp("", "answer-*"+audioExtension(audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create audio scratch file: %w", err)
	}

	if _, err := file.Write(audio); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())

		return nil, fmt.Errorf("failed to write audio scratch file: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())

		return nil, fmt.Errorf("failed to rewind audio scratch file: %w", err)
	}

	return file, nil
}

// uploadFormats maps sniffed containers to the extensions the transcription
// endpoint accepts.
var uploadFormats = []struct {
	mime string
	ext  string
}{
	{"audio/wav", ".wav"},
	{"audio/webm", ".webm"},
	{"video/webm", ".webm"},
	{"audio/ogg", ".ogg"},
	{"audio/mpeg", ".mp3"},
	{"audio/mp4", ".m4a"},
	{"audio/flac", ".flac"},
}

// audioExtension sniffs the container format; browsers differ in what they
// record. Unknown payloads are sent as WAV.
func audioExtension(audio []byte) string {
	mt := mimetype.Detect(audio)

	for _, f := range uploadFormats {
		if mt.Is(f.mime) {
			return f.ext
		}
	}

	return ".wav"
}
