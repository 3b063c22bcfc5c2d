// Package interview implements the phase controller for a timed voice
// technical assessment: a lobby chat with a coordinator, up to a fixed
// number of interviewer questions, and a final graded report.
package interview

import (
	"slices"
	"time"

	"github.com/alkime/assessor/pkg/collections"
)

// Phase is the coarse mode a Session is in.
type Phase int

const (
	// PhaseLobby is the pre-interview chat with the coordinator.
	PhaseLobby Phase = iota
	// PhaseActive is the timed question/answer interview.
	PhaseActive
	// PhaseReport is the graded report view.
	PhaseReport
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseActive:
		return "active"
	case PhaseReport:
		return "report"
	default:
		return "unknown"
	}
}

// Speaker identifies who produced a transcript turn.
type Speaker string

const (
	// SpeakerCandidate is the person taking the assessment.
	SpeakerCandidate Speaker = "candidate"
	// SpeakerCoordinator is the lobby chatbot.
	SpeakerCoordinator Speaker = "coordinator"
	// SpeakerInterviewer is the AI interviewer asking questions.
	SpeakerInterviewer Speaker = "interviewer"
)

// Turn is one entry of a transcript.
type Turn struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Level is the seniority an assessment targets.
type Level string

const (
	LevelJunior Level = "Junior"
	LevelSenior Level = "Senior"
	LevelLead   Level = "Lead"
)

// Levels returns all supported levels in display order.
func Levels() []Level {
	return []Level{LevelJunior, LevelSenior, LevelLead}
}

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, error) {
	for _, l := range Levels() {
		if string(l) == name {
			return l, nil
		}
	}

	return "", ErrInvalidLevel
}

// Position is the role an assessment is being run for.
type Position struct {
	Role  string
	Level Level
}

// DefaultPosition is used until the candidate picks something else.
func DefaultPosition() Position {
	return Position{
		Role:  "Senior Backend Engineer",
		Level: LevelJunior,
	}
}

// Session is the full mutable state of one candidate's run. It is owned by
// the hosting layer and mutated only through a Controller.
type Session struct {
	Phase    Phase
	Position Position

	LobbyTranscript     []Turn
	InterviewTranscript []Turn

	// QuestionIndex is 1-based and only meaningful in PhaseActive.
	QuestionIndex     int
	QuestionStartedAt time.Time

	LastSpokenFingerprint string
	LastAudioFingerprint  string

	// MicWindowStartedAt approximates when the next recording began. It is
	// the arrival time of the previous audio submission, not a real
	// capture-start signal.
	MicWindowStartedAt *time.Time

	FinalReport string
}

// NewSession returns a Session in the lobby with every field at its default.
func NewSession() *Session {
	return &Session{
		Phase:    PhaseLobby,
		Position: DefaultPosition(),
	}
}

// LastInterviewTurn returns the most recent interview turn, if any.
func (s *Session) LastInterviewTurn() (Turn, bool) {
	if len(s.InterviewTranscript) == 0 {
		return Turn{}, false
	}

	return s.InterviewTranscript[len(s.InterviewTranscript)-1], true
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() Session {
	c := *s
	c.LobbyTranscript = slices.Clone(s.LobbyTranscript)
	c.InterviewTranscript = slices.Clone(s.InterviewTranscript)

	if s.MicWindowStartedAt != nil {
		at := *s.MicWindowStartedAt
		c.MicWindowStartedAt = &at
	}

	return c
}

// CurrentQuestion returns the latest interviewer line of the assessment.
func (s *Session) CurrentQuestion() (Turn, bool) {
	return collections.Last(s.InterviewTranscript, func(t Turn) bool {
		return t.Speaker == SpeakerInterviewer
	})
}

// AwaitingAnswer reports whether an interviewer question is posted and has
// no candidate response yet.
func (s *Session) AwaitingAnswer() bool {
	last, ok := s.LastInterviewTurn()

	return ok && s.Phase == PhaseActive && last.Speaker == SpeakerInterviewer
}

// QuestionOpen reports whether the latest interviewer line has been played,
// so its answer window is running.
func (s *Session) QuestionOpen() bool {
	if !s.AwaitingAnswer() {
		return false
	}

	last, _ := s.LastInterviewTurn()

	return s.LastSpokenFingerprint == Fingerprint([]byte(last.Text))
}
