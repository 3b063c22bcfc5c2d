package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/internal/store"
	"github.com/gin-gonic/gin"
)

var (
	errBadRequest    = errors.New("bad request")
	errAudioTooLarge = errors.New("audio payload too large")
)

// commandResponse is the body returned by every session command.
type commandResponse struct {
	Session  sessionView `json:"session"`
	Advanced bool        `json:"advanced,omitempty"`
	TimedOut bool        `json:"timedOut,omitempty"`
	Report   string      `json:"report,omitempty"`
	// Error carries a non-fatal failure, such as speech that could not be
	// synthesized.
	Error string `json:"error,omitempty"`
}

type positionRequest struct {
	Role  string `json:"role" binding:"required"`
	Level string `json:"level" binding:"required"`
}

type startRequest struct {
	Role  string `json:"role"`
	Level string `json:"level"`
}

type lobbyMessageRequest struct {
	Text string `json:"text"`
}

// run dispatches the command built by build against the session named in
// the path. build sees the session under its lock.
func (s *Server) run(c *gin.Context, build func(*interview.Session) interview.Command) (interview.Effect, sessionView, error) {
	id := c.Param("id")

	var (
		effect interview.Effect
		view   sessionView
	)

	err := s.sessions.With(id, func(sess *interview.Session) error {
		cmd := build(sess)

		var err error
		effect, err = s.ctrl.Dispatch(c.Request.Context(), sess, cmd)
		view = newSessionView(id, sess, s.ctrl.Limits(), s.now())

		if err != nil {
			s.logger.Warn("Command failed",
				"session_id", id,
				"command", interview.CommandName(cmd),
				"error", err,
			)
		}

		return err
	})

	return effect, view, err
}

// runAndRespond dispatches a command and writes the standard response.
func (s *Server) runAndRespond(c *gin.Context, build func(*interview.Session) interview.Command) {
	effect, view, err := s.run(c, build)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, commandResponse{
		Session:  view,
		Advanced: effect.Advanced,
		TimedOut: effect.TimedOut,
		Report:   effect.Report,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.ctrl.EnterLobby()
	view := newSessionView("", sess, s.ctrl.Limits(), s.now())
	view.ID = s.sessions.Create(sess)

	s.logger.Info("Session created", "session_id", view.ID)

	c.JSON(http.StatusCreated, commandResponse{Session: view})
}

func (s *Server) handleGetSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := s.sessions.Snapshot(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, commandResponse{
		Session: newSessionView(id, &sess, s.ctrl.Limits(), s.now()),
	})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("id")) {
		s.respondError(c, store.ErrNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetPosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.ChoosePosition{Role: req.Role, Level: interview.Level(req.Level)}
	})
}

func (s *Server) handleLobbyMessage(c *gin.Context) {
	var req lobbyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.AskCoordinator{Text: req.Text, At: s.now()}
	})
}

// handleStart begins the assessment. Omitted fields fall back to the
// position chosen in the lobby.
func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	s.runAndRespond(c, func(sess *interview.Session) interview.Command {
		cmd := interview.Start{
			Role:  req.Role,
			Level: interview.Level(req.Level),
			At:    s.now(),
		}
		if strings.TrimSpace(cmd.Role) == "" {
			cmd.Role = sess.Position.Role
		}
		if cmd.Level == "" {
			cmd.Level = sess.Position.Level
		}

		return cmd
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.Refresh{At: s.now()}
	})
}

// handleSpeech returns the latest interviewer line as MP3 the first time it
// is requested, and 204 afterwards.
func (s *Server) handleSpeech(c *gin.Context) {
	effect, view, err := s.run(c, func(*interview.Session) interview.Command {
		return interview.Speak{At: s.now()}
	})

	switch {
	case isSynthesisFailure(err):
		c.JSON(http.StatusOK, commandResponse{Session: view, Error: err.Error()})
	case err != nil:
		s.respondError(c, err)
	case len(effect.Speech) == 0:
		c.Status(http.StatusNoContent)
	default:
		c.Data(http.StatusOK, "audio/mpeg", effect.Speech)
	}
}

func (s *Server) handleAnswer(c *gin.Context) {
	audio, err := s.readAudio(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.SubmitAudio{Audio: audio, At: s.now()}
	})
}

func (s *Server) handleSkip(c *gin.Context) {
	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.Skip{At: s.now()}
	})
}

func (s *Server) handleEnd(c *gin.Context) {
	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.End{}
	})
}

func (s *Server) handleReport(c *gin.Context) {
	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.RequestReport{}
	})
}

func (s *Server) handleReset(c *gin.Context) {
	s.runAndRespond(c, func(*interview.Session) interview.Command {
		return interview.Reset{}
	})
}

// handleEvents streams session changes as server-sent events until the
// client goes away or the session is deleted. The first event is the
// current state.
func (s *Server) handleEvents(c *gin.Context) {
	id := c.Param("id")

	changes, cancel, err := s.sessions.Subscribe(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer cancel()

	current, err := s.sessions.Snapshot(id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.SSEvent("session", store.NewChange(id, &current, s.now()))
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("session", change)

			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	if n := s.sessions.Dropped(id); n > 0 {
		s.logger.Warn("Event stream missed changes", "session_id", id, "dropped", n)
	}
}

// readAudio reads a recording from a multipart "audio" field or, failing
// that, the raw request body.
func (s *Server) readAudio(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxAudioSize)

	var (
		audio []byte
		err   error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		audio, err = readFormAudio(c)
	} else {
		audio, err = io.ReadAll(c.Request.Body)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errAudioTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio: %w", errBadRequest, err)
	}

	return audio, nil
}

func readFormAudio(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("audio")
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (s *Server) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var collab *interview.CollaboratorError

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, errAudioTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, interview.ErrInvalidLevel),
		errors.Is(err, interview.ErrEmptyRole),
		errors.Is(err, interview.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.As(err, &collab):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isSynthesisFailure(err error) bool {
	var collab *interview.CollaboratorError

	return errors.As(err, &collab) && collab.Op == interview.OpSynthesis
}
