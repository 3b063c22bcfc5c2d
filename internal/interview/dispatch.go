package interview

import (
	"context"
	"fmt"
	"time"
)

// Command is one discrete candidate or operator action.
type Command interface {
	commandName() string
}

// AskCoordinator sends a lobby question to the coordinator.
type AskCoordinator struct {
	Text string
	At   time.Time
}

// ChoosePosition changes the role and level in the lobby.
type ChoosePosition struct {
	Role  string
	Level Level
}

// Start begins the assessment.
type Start struct {
	Role  string
	Level Level
	At    time.Time
}

// Refresh re-evaluates the timers and ends the cycle on timeout.
type Refresh struct {
	At time.Time
}

// Speak plays the latest interviewer line if it has not been played.
type Speak struct {
	At time.Time
}

// SubmitAudio hands in a finished recording.
type SubmitAudio struct {
	Audio []byte
	At    time.Time
}

// Skip skips the current question.
type Skip struct {
	At time.Time
}

// End finishes the interview early.
type End struct{}

// RequestReport produces (or returns) the final report.
type RequestReport struct{}

// Reset starts over with a new candidate.
type Reset struct{}

func (AskCoordinator) commandName() string { return "ask_coordinator" }
func (ChoosePosition) commandName() string { return "choose_position" }
func (Start) commandName() string          { return "start" }
func (Refresh) commandName() string        { return "refresh" }
func (Speak) commandName() string          { return "speak" }
func (SubmitAudio) commandName() string    { return "submit_audio" }
func (Skip) commandName() string           { return "skip" }
func (End) commandName() string            { return "end" }
func (RequestReport) commandName() string  { return "report" }
func (Reset) commandName() string          { return "reset" }

// CommandName returns the stable name of a command, for logs and events.
func CommandName(cmd Command) string {
	return cmd.commandName()
}

// Effect is what the hosting layer should do after a command.
type Effect struct {
	// Speech is audio to play, nil when nothing new was spoken.
	Speech []byte
	// Advanced is true when a question cycle ended.
	Advanced bool
	// TimedOut is true when the cycle ended by timeout.
	TimedOut bool
	// Report is the final report text.
	Report string
}

// Dispatch runs one command against the session.
func (c *Controller) Dispatch(ctx context.Context, s *Session, cmd Command) (Effect, error) {
	switch cmd := cmd.(type) {
	case AskCoordinator:
		return Effect{}, c.SubmitLobbyQuery(ctx, s, cmd.Text, cmd.At)

	case ChoosePosition:
		return Effect{}, c.SetPosition(s, cmd.Role, cmd.Level)

	case Start:
		return Effect{}, c.StartAssessment(s, cmd.Role, cmd.Level, cmd.At)

	case Refresh:
		if s.Phase != PhaseActive || !c.Tick(s, cmd.At) {
			return Effect{}, nil
		}

		return c.advance(ctx, s, Timeout(), cmd.At)

	case Speak:
		audio, err := c.PlayNextInterviewerLine(ctx, s, cmd.At)

		return Effect{Speech: audio}, err

	case SubmitAudio:
		prevAudio := s.LastAudioFingerprint

		resp, ok, err := c.SubmitAudio(ctx, s, cmd.Audio, cmd.At)
		if err != nil || !ok {
			return Effect{}, err
		}

		effect, err := c.advance(ctx, s, resp, cmd.At)
		if err != nil {
			// The answer was rolled back, so the same upload may be sent again.
			s.LastAudioFingerprint = prevAudio
		}

		return effect, err

	case Skip:
		return c.advance(ctx, s, SkipQuestion(), cmd.At)

	case End:
		return Effect{}, c.EndAssessment(s)

	case RequestReport:
		report, err := c.GenerateReport(ctx, s)

		return Effect{Report: report}, err

	case Reset:
		return Effect{}, c.Reset(s)

	default:
		return Effect{}, fmt.Errorf("%T: %w", cmd, ErrUnknownCommand)
	}
}

func (c *Controller) advance(ctx context.Context, s *Session, r Response, at time.Time) (Effect, error) {
	if err := c.AdvanceQuestion(ctx, s, r, at); err != nil {
		return Effect{}, err
	}

	return Effect{Advanced: true, TimedOut: r.TimedOut}, nil
}
