package interview //nolint:testpackage // Needs access to instructionFor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstructionFor(t *testing.T) {
	tests := []struct {
		name     string
		response Response
		expected string
	}{
		{name: "timeout", response: Timeout(), expected: TimeoutInstruction},
		{name: "timeout wins over text", response: Response{Text: "late answer", TimedOut: true}, expected: TimeoutInstruction},
		{name: "skip", response: SkipQuestion(), expected: SkipInstruction},
		{name: "answer", response: Answer("It uses a hash ring."), expected: AnswerInstruction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, instructionFor(tt.response.Trigger()))
		})
	}
}

func TestInstructionsAreDistinct(t *testing.T) {
	assert.NotEqual(t, SkipInstruction, AnswerInstruction)
	assert.NotEqual(t, SkipInstruction, TimeoutInstruction)
	assert.NotEqual(t, AnswerInstruction, TimeoutInstruction)

	assert.Contains(t, SkipInstruction, "DIFFERENT")
	assert.Contains(t, AnswerInstruction, "Start your response directly with the question")
	assert.Contains(t, GradingInstruction, "Hire / No Hire")
	assert.Contains(t, GradingInstruction, "0-100")
	assert.Contains(t, GradingInstruction, "Weak Areas")
}

func TestCoordinatorInstruction(t *testing.T) {
	got := CoordinatorInstruction("Site Reliability Engineer")

	assert.Contains(t, got, "Interview Coordinator")
	assert.Contains(t, got, "Site Reliability Engineer role")
}

func TestOpeningQuestion(t *testing.T) {
	got := OpeningQuestion(Position{Role: "Frontend Engineer", Level: LevelLead})

	assert.Equal(t,
		"This is the Lead Frontend Engineer assessment. Question 1: Introduce yourself and describe your technical stack.",
		got)
}

func TestTranscriptText(t *testing.T) {
	assert.Equal(t, TimeoutMarker, Timeout().transcriptText())
	assert.Equal(t, SkippedMarker, SkipQuestion().transcriptText())
	assert.Equal(t, "plain", Answer("plain").transcriptText())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("same"))

	assert.Equal(t, a, Fingerprint([]byte("same")))
	assert.NotEqual(t, a, Fingerprint([]byte("other")))
	assert.Len(t, a, 64)
}
