package interview

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// SkipToken is the answer text that marks a skipped question.
	SkipToken = "SKIP"
	// SkippedMarker is written to the transcript for a skipped question.
	SkippedMarker = "(Skipped)"
	// TimeoutMarker is written to the transcript when the window lapsed.
	TimeoutMarker = "(Timeout)"
)

// Trigger is how a question cycle ended.
type Trigger int

const (
	TriggerAnswer Trigger = iota
	TriggerSkip
	TriggerTimeout
)

func (t Trigger) String() string {
	switch t {
	case TriggerAnswer:
		return "answer"
	case TriggerSkip:
		return "skip"
	case TriggerTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Response is exactly one of a free-text answer, the skip token, or a timeout.
type Response struct {
	Text     string
	TimedOut bool
}

// Answer wraps a candidate's answer text.
func Answer(text string) Response {
	return Response{Text: text}
}

// SkipQuestion returns the skip token response, bypassing transcription.
func SkipQuestion() Response {
	return Response{Text: SkipToken}
}

// Timeout returns the response used when the answer window lapsed.
func Timeout() Response {
	return Response{TimedOut: true}
}

// Trigger classifies the response. A timeout wins over any text.
func (r Response) Trigger() Trigger {
	switch {
	case r.TimedOut:
		return TriggerTimeout
	case r.Text == SkipToken:
		return TriggerSkip
	default:
		return TriggerAnswer
	}
}

// transcriptText is what the candidate side of the transcript records.
func (r Response) transcriptText() string {
	switch r.Trigger() {
	case TriggerTimeout:
		return TimeoutMarker
	case TriggerSkip:
		return SkippedMarker
	default:
		return r.Text
	}
}

// Fingerprint returns a content hash used to detect repeated submissions.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
