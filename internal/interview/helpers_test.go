package interview_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// mockChat implements interview.ChatCompleter for testing.
type mockChat struct {
	err          error
	reply        string
	calls        int
	instructions []string
	lastTurns    []interview.Turn
}

func (m *mockChat) Complete(_ context.Context, instruction string, turns []interview.Turn) (string, error) {
	m.calls++
	m.instructions = append(m.instructions, instruction)
	m.lastTurns = turns

	if m.err != nil {
		return "", m.err
	}

	if m.reply != "" {
		return m.reply, nil
	}

	return fmt.Sprintf("Question %d: what is a goroutine?", m.calls+1), nil
}

func (m *mockChat) lastInstruction() string {
	if len(m.instructions) == 0 {
		return ""
	}

	return m.instructions[len(m.instructions)-1]
}

// mockTranscriber implements interview.Transcriber for testing.
type mockTranscriber struct {
	text  string
	err   error
	calls int
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	m.calls++

	return m.text, m.err
}

// mockSynthesizer implements interview.Synthesizer for testing.
type mockSynthesizer struct {
	audio []byte
	err   error
	calls int
	texts []string
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.calls++
	m.texts = append(m.texts, text)

	return m.audio, m.err
}

type fixture struct {
	coordinator *mockChat
	interviewer *mockChat
	grader      *mockChat
	transcriber *mockTranscriber
	synthesizer *mockSynthesizer
	ctrl        *interview.Controller
}

func newFixture() *fixture {
	f := &fixture{
		coordinator: &mockChat{reply: "The test covers backend fundamentals. Good luck!"},
		interviewer: &mockChat{},
		grader:      &mockChat{reply: "1. Decision: Hire\n2. Technical Score: 82\n3. Weak Areas: caching"},
		transcriber: &mockTranscriber{text: "I mostly write Go services."},
		synthesizer: &mockSynthesizer{audio: []byte("mp3-bytes")},
	}

	f.ctrl = interview.NewController(interview.Collaborators{
		Coordinator: f.coordinator,
		Interviewer: f.interviewer,
		Grader:      f.grader,
		Transcriber: f.transcriber,
		Synthesizer: f.synthesizer,
	}, interview.DefaultLimits(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	return f
}

// activeSession returns a session that has started and played its opener at t0.
func (f *fixture) activeSession(t *testing.T) *interview.Session {
	t.Helper()

	s := f.ctrl.EnterLobby()
	require.NoError(t, f.ctrl.StartAssessment(s, "Senior Backend Engineer", interview.LevelSenior, t0))

	_, err := f.ctrl.PlayNextInterviewerLine(context.Background(), s, t0)
	require.NoError(t, err)

	return s
}
