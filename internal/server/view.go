package server

import (
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/pkg/collections"
)

type turnView struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type positionView struct {
	Role  string `json:"role"`
	Level string `json:"level"`
}

// sessionView is the JSON shape of a session sent to the browser.
type sessionView struct {
	ID              string       `json:"id"`
	Phase           string       `json:"phase"`
	Position        positionView `json:"position"`
	Levels          []string     `json:"levels"`
	Lobby           []turnView   `json:"lobby"`
	Interview       []turnView   `json:"interview"`
	QuestionIndex   int          `json:"questionIndex"`
	MaxQuestions    int          `json:"maxQuestions"`
	CurrentQuestion string       `json:"currentQuestion,omitempty"`
	AnswersGiven    int          `json:"answersGiven"`
	// SecondsLeft is set while an answer window is running.
	SecondsLeft *int   `json:"secondsLeft,omitempty"`
	Report      string `json:"report,omitempty"`
}

func toTurnView(t interview.Turn) turnView {
	return turnView{
		Speaker: string(t.Speaker),
		Text:    t.Text,
		At:      t.At,
	}
}

func newSessionView(id string, s *interview.Session, limits interview.Limits, now time.Time) sessionView {
	view := sessionView{
		ID:    id,
		Phase: s.Phase.String(),
		Position: positionView{
			Role:  s.Position.Role,
			Level: string(s.Position.Level),
		},
		Levels:        collections.Apply(interview.Levels(), func(l interview.Level) string { return string(l) }),
		Lobby:         collections.Apply(s.LobbyTranscript, toTurnView),
		Interview:     collections.Apply(s.InterviewTranscript, toTurnView),
		QuestionIndex: s.QuestionIndex,
		MaxQuestions:  limits.MaxQuestions,
		Report:        s.FinalReport,
	}

	view.AnswersGiven = len(collections.Filter(s.InterviewTranscript, func(t interview.Turn) bool {
		return t.Speaker == interview.SpeakerCandidate
	}))

	if q, ok := s.CurrentQuestion(); ok && s.Phase == interview.PhaseActive {
		view.CurrentQuestion = q.Text
	}

	if s.QuestionOpen() && !s.QuestionStartedAt.IsZero() {
		left := int(limits.AnswerWindow.Seconds() - now.Sub(s.QuestionStartedAt).Seconds())
		view.SecondsLeft = &left
		if left < 0 {
			*view.SecondsLeft = 0
		}
	}

	return view
}
