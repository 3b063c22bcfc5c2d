package interview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_FullAssessment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.ctrl.EnterLobby()

	dispatch := func(cmd interview.Command) interview.Effect {
		t.Helper()
		eff, err := f.ctrl.Dispatch(ctx, s, cmd)
		require.NoError(t, err, interview.CommandName(cmd))

		return eff
	}

	dispatch(interview.AskCoordinator{Text: "Is there a break?", At: t0})
	dispatch(interview.ChoosePosition{Role: "Platform Engineer", Level: interview.LevelLead})
	dispatch(interview.Start{Role: "Platform Engineer", Level: interview.LevelLead, At: t0})
	require.Equal(t, interview.PhaseActive, s.Phase)

	eff := dispatch(interview.Speak{At: t0})
	assert.Equal(t, []byte("mp3-bytes"), eff.Speech)

	eff = dispatch(interview.Refresh{At: t0.Add(10 * time.Second)})
	assert.False(t, eff.Advanced)

	eff = dispatch(interview.SubmitAudio{Audio: []byte("take-1"), At: t0.Add(12 * time.Second)})
	assert.True(t, eff.Advanced)
	assert.False(t, eff.TimedOut)
	assert.Equal(t, 2, s.QuestionIndex)

	eff = dispatch(interview.SubmitAudio{Audio: []byte("take-1"), At: t0.Add(13 * time.Second)})
	assert.False(t, eff.Advanced, "repeated payload is ignored")

	dispatch(interview.Speak{At: t0.Add(20 * time.Second)})
	eff = dispatch(interview.Refresh{At: t0.Add(51 * time.Second)})
	assert.True(t, eff.Advanced)
	assert.True(t, eff.TimedOut)
	assert.Equal(t, 3, s.QuestionIndex)

	eff = dispatch(interview.Skip{At: t0.Add(52 * time.Second)})
	assert.True(t, eff.Advanced)
	assert.Equal(t, 4, s.QuestionIndex)

	dispatch(interview.End{})
	eff = dispatch(interview.RequestReport{})
	assert.Contains(t, eff.Report, "Decision: Hire")

	dispatch(interview.Reset{})
	assert.Equal(t, interview.NewSession(), s)

	assert.Equal(t, 1, f.transcriber.calls)
	assert.Equal(t, 1, f.grader.calls)
	assert.Equal(t, []string{
		interview.AnswerInstruction,
		interview.TimeoutInstruction,
		interview.SkipInstruction,
	}, f.interviewer.instructions)
}

func TestDispatch_AnswerCanBeResentAfterInterviewerFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.activeSession(t)
	payload := []byte("take-1")

	f.interviewer.err = errors.New("upstream 503")
	_, err := f.ctrl.Dispatch(ctx, s, interview.SubmitAudio{Audio: payload, At: t0.Add(5 * time.Second)})

	var collabErr *interview.CollaboratorError
	require.ErrorAs(t, err, &collabErr)
	assert.Len(t, s.InterviewTranscript, 1)

	f.interviewer.err = nil
	eff, err := f.ctrl.Dispatch(ctx, s, interview.SubmitAudio{Audio: payload, At: t0.Add(8 * time.Second)})

	require.NoError(t, err)
	assert.True(t, eff.Advanced)
	assert.Equal(t, 2, s.QuestionIndex)
	assert.Equal(t, 2, f.transcriber.calls)
}

func TestDispatch_RefreshOutsideInterview(t *testing.T) {
	f := newFixture()
	s := f.ctrl.EnterLobby()

	eff, err := f.ctrl.Dispatch(context.Background(), s, interview.Refresh{At: t0})

	require.NoError(t, err)
	assert.Equal(t, interview.Effect{}, eff)
}

func TestDispatch_InvalidTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.ctrl.EnterLobby()

	for _, cmd := range []interview.Command{
		interview.Speak{At: t0},
		interview.SubmitAudio{Audio: []byte("a"), At: t0},
		interview.Skip{At: t0},
		interview.End{},
		interview.RequestReport{},
		interview.Reset{},
	} {
		_, err := f.ctrl.Dispatch(ctx, s, cmd)
		assert.ErrorIs(t, err, interview.ErrInvalidTransition, interview.CommandName(cmd))
	}

	assert.Equal(t, interview.NewSession(), s)
}
