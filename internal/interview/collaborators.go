package interview

import (
	"context"
)

// ChatCompleter produces a single reply for an instruction and an ordered
// transcript. It backs the coordinator, the interviewer and the grader.
type ChatCompleter interface {
	Complete(ctx context.Context, instruction string, turns []Turn) (string, error)
}

// Transcriber converts a finite audio payload to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text to playable audio. Playback is the caller's job.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Collaborators groups the external capabilities a Controller calls out to.
type Collaborators struct {
	Coordinator ChatCompleter
	Interviewer ChatCompleter
	Grader      ChatCompleter
	Transcriber Transcriber
	Synthesizer Synthesizer
}
