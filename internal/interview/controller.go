package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Collaborator operation names used in CollaboratorError.
const (
	OpCoordinator = "coordinator reply"
	OpInterviewer = "interviewer question"
	OpGrader      = "report grading"
	OpSynthesis   = "speech synthesis"
)

// ErrEmptyAnswer is returned when an answer response carries no text.
var ErrEmptyAnswer = errors.New("answer cannot be empty")

const (
	// DefaultAnswerWindow is how long a candidate has to answer a question.
	DefaultAnswerWindow = 30 * time.Second
	// DefaultIdleWindow is the secondary timeout after the last recording.
	DefaultIdleWindow = 10 * time.Second
	// DefaultMaxQuestions caps the number of question cycles.
	DefaultMaxQuestions = 15
)

// Limits are the timing and length rules of an assessment.
type Limits struct {
	AnswerWindow time.Duration
	IdleWindow   time.Duration
	MaxQuestions int
}

// DefaultLimits returns the standard 30s/10s/15 question limits.
func DefaultLimits() Limits {
	return Limits{
		AnswerWindow: DefaultAnswerWindow,
		IdleWindow:   DefaultIdleWindow,
		MaxQuestions: DefaultMaxQuestions,
	}
}

// WithDefaults returns limits with default values applied to zero fields.
func (l Limits) WithDefaults() Limits {
	if l.AnswerWindow <= 0 {
		l.AnswerWindow = DefaultAnswerWindow
	}

	if l.IdleWindow <= 0 {
		l.IdleWindow = DefaultIdleWindow
	}

	if l.MaxQuestions <= 0 {
		l.MaxQuestions = DefaultMaxQuestions
	}

	return l
}

// Controller computes the next Session state for each candidate action.
// It holds no per-session state; callers must not run two operations on
// the same Session concurrently.
type Controller struct {
	collab Collaborators
	limits Limits
	logger *slog.Logger
}

// NewController creates a Controller. A nil Synthesizer disables speech.
func NewController(collab Collaborators, limits Limits, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		collab: collab,
		limits: limits.WithDefaults(),
		logger: logger,
	}
}

// Limits returns the limits the controller enforces.
func (c *Controller) Limits() Limits {
	return c.limits
}

// EnterLobby returns a fresh Session in the lobby.
func (c *Controller) EnterLobby() *Session {
	return NewSession()
}

// SetPosition changes the role and level while still in the lobby.
func (c *Controller) SetPosition(s *Session, role string, level Level) error {
	if s.Phase != PhaseLobby {
		return transitionError("set position", s.Phase)
	}

	pos, err := newPosition(role, level)
	if err != nil {
		return err
	}

	s.Position = pos

	return nil
}

// SubmitLobbyQuery asks the coordinator a question. Blank text is a no-op.
// On failure the candidate turn is withdrawn so the lobby can be retried.
func (c *Controller) SubmitLobbyQuery(ctx context.Context, s *Session, text string, now time.Time) error {
	if s.Phase != PhaseLobby {
		return transitionError("lobby query", s.Phase)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	prev := len(s.LobbyTranscript)
	s.LobbyTranscript = append(s.LobbyTranscript, Turn{Speaker: SpeakerCandidate, Text: text, At: now})

	reply, err := c.collab.Coordinator.Complete(ctx, CoordinatorInstruction(s.Position.Role),
		slices.Clone(s.LobbyTranscript))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}

	if err != nil {
		s.LobbyTranscript = s.LobbyTranscript[:prev]

		return &CollaboratorError{Op: OpCoordinator, Err: err}
	}

	s.LobbyTranscript = append(s.LobbyTranscript, Turn{Speaker: SpeakerCoordinator, Text: reply, At: now})

	c.logger.Debug("coordinator replied", "turns", len(s.LobbyTranscript))

	return nil
}

// StartAssessment moves the session from the lobby into the interview and
// posts the templated opening question.
func (c *Controller) StartAssessment(s *Session, role string, level Level, now time.Time) error {
	if s.Phase != PhaseLobby {
		return transitionError("start assessment", s.Phase)
	}

	pos, err := newPosition(role, level)
	if err != nil {
		return err
	}

	s.Position = pos
	s.Phase = PhaseActive
	s.QuestionIndex = 1
	s.QuestionStartedAt = time.Time{}
	s.MicWindowStartedAt = nil
	s.InterviewTranscript = []Turn{
		{Speaker: SpeakerInterviewer, Text: OpeningQuestion(pos), At: now},
	}

	c.logger.Info("assessment started", "role", pos.Role, "level", pos.Level)

	return nil
}

// Tick reports whether the current question has timed out at now. It does
// not mutate the session. A question whose line has not been played yet
// has no open window and never times out.
func (c *Controller) Tick(s *Session, now time.Time) bool {
	if !s.QuestionOpen() {
		return false
	}

	if c.primaryTimedOut(s, now) {
		return true
	}

	return s.MicWindowStartedAt != nil && now.Sub(*s.MicWindowStartedAt) > c.limits.IdleWindow
}

// primaryTimedOut only applies to a question that has been played;
// QuestionStartedAt still belongs to the previous question until then.
func (c *Controller) primaryTimedOut(s *Session, now time.Time) bool {
	return s.QuestionOpen() && now.Sub(s.QuestionStartedAt) > c.limits.AnswerWindow
}

// PlayNextInterviewerLine vocalizes the latest interviewer line at most once
// and opens its answer window. It returns nil audio when there is nothing
// new to play. A synthesis failure still opens the window; the error is
// returned as a CollaboratorError for inline display.
func (c *Controller) PlayNextInterviewerLine(ctx context.Context, s *Session, now time.Time) ([]byte, error) {
	if s.Phase != PhaseActive {
		return nil, transitionError("play interviewer line", s.Phase)
	}

	last, ok := s.LastInterviewTurn()
	if !ok || last.Speaker != SpeakerInterviewer {
		return nil, nil
	}

	fp := Fingerprint([]byte(last.Text))
	if fp == s.LastSpokenFingerprint {
		return nil, nil
	}

	s.LastSpokenFingerprint = fp
	s.QuestionStartedAt = now
	s.MicWindowStartedAt = nil

	if c.collab.Synthesizer == nil {
		return nil, nil
	}

	audio, err := c.collab.Synthesizer.Synthesize(ctx, last.Text)
	if err != nil {
		c.logger.Warn("speech synthesis failed", "question", s.QuestionIndex, "error", err)

		return nil, &CollaboratorError{Op: OpSynthesis, Err: err}
	}

	return audio, nil
}

// SubmitAudio turns a recorded payload into this cycle's response. The bool
// is false when there is nothing to act on: a repeated payload, a failed
// or empty transcription. A payload arriving after the answer window of a
// played question yields a timeout response without being transcribed.
func (c *Controller) SubmitAudio(ctx context.Context, s *Session, audio []byte, now time.Time) (Response, bool, error) {
	if s.Phase != PhaseActive {
		return Response{}, false, transitionError("submit audio", s.Phase)
	}

	if len(audio) == 0 {
		return Response{}, false, nil
	}

	fp := Fingerprint(audio)
	if fp == s.LastAudioFingerprint {
		c.logger.Debug("ignoring repeated audio payload", "bytes", len(audio))

		return Response{}, false, nil
	}

	s.LastAudioFingerprint = fp
	// Marks the idle window for the next recording, not the one just received.
	mark := now
	s.MicWindowStartedAt = &mark

	if c.primaryTimedOut(s, now) {
		return Timeout(), true, nil
	}

	text, err := c.collab.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		c.logger.Warn("transcription failed", "question", s.QuestionIndex, "error", err)

		return Response{}, false, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Response{}, false, nil
	}

	return Answer(text), true, nil
}

// AdvanceQuestion ends the current cycle: it records the candidate side,
// asks the interviewer for the next question and moves the counter. When
// the counter passes the question cap the session moves to the report.
// On interviewer failure the transcript is left as it was.
func (c *Controller) AdvanceQuestion(ctx context.Context, s *Session, r Response, now time.Time) error {
	if s.Phase != PhaseActive {
		return transitionError("advance question", s.Phase)
	}

	trigger := r.Trigger()
	if trigger == TriggerAnswer && strings.TrimSpace(r.Text) == "" {
		return ErrEmptyAnswer
	}

	prev := len(s.InterviewTranscript)
	s.InterviewTranscript = append(s.InterviewTranscript,
		Turn{Speaker: SpeakerCandidate, Text: r.transcriptText(), At: now})

	reply, err := c.collab.Interviewer.Complete(ctx, instructionFor(trigger), slices.Clone(s.InterviewTranscript))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}

	if err != nil {
		s.InterviewTranscript = s.InterviewTranscript[:prev]

		return &CollaboratorError{Op: OpInterviewer, Err: err}
	}

	s.InterviewTranscript = append(s.InterviewTranscript,
		Turn{Speaker: SpeakerInterviewer, Text: strings.TrimSpace(reply), At: now})
	s.QuestionIndex++

	c.logger.Info("question advanced",
		"trigger", trigger.String(),
		"question", s.QuestionIndex,
	)

	if s.QuestionIndex > c.limits.MaxQuestions {
		s.Phase = PhaseReport
		c.logger.Info("question cap reached", "max", c.limits.MaxQuestions)
	}

	return nil
}

// EndAssessment is the operator's explicit early end of the interview.
func (c *Controller) EndAssessment(s *Session) error {
	if s.Phase != PhaseActive {
		return transitionError("end assessment", s.Phase)
	}

	s.Phase = PhaseReport
	c.logger.Info("assessment ended early", "question", s.QuestionIndex)

	return nil
}

// GenerateReport grades the interview once. Later calls return the stored
// report without calling the grader again.
func (c *Controller) GenerateReport(ctx context.Context, s *Session) (string, error) {
	if s.Phase != PhaseReport {
		return "", transitionError("generate report", s.Phase)
	}

	if s.FinalReport != "" {
		return s.FinalReport, nil
	}

	reply, err := c.collab.Grader.Complete(ctx, GradingInstruction, slices.Clone(s.InterviewTranscript))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}

	if err != nil {
		return "", &CollaboratorError{Op: OpGrader, Err: err}
	}

	s.FinalReport = reply
	c.logger.Info("report generated", "turns", len(s.InterviewTranscript))

	return s.FinalReport, nil
}

// Reset returns a reported session to a fresh lobby.
func (c *Controller) Reset(s *Session) error {
	if s.Phase != PhaseReport {
		return transitionError("reset", s.Phase)
	}

	*s = *NewSession()

	return nil
}

func newPosition(role string, level Level) (Position, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return Position{}, ErrEmptyRole
	}

	if _, err := ParseLevel(string(level)); err != nil {
		return Position{}, fmt.Errorf("level %q: %w", level, err)
	}

	return Position{Role: role, Level: level}, nil
}
