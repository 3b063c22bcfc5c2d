package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a command is not valid in the
	// session's current phase. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrInvalidLevel is returned for an unknown seniority level.
	ErrInvalidLevel = errors.New("level must be one of Junior, Senior, Lead")
	// ErrEmptyRole is returned when an assessment is started without a role.
	ErrEmptyRole = errors.New("role cannot be empty")
	// ErrEmptyReply is returned when a chat collaborator answers with no text.
	ErrEmptyReply = errors.New("empty reply from chat model")
	// ErrUnknownCommand is returned by Dispatch for unsupported command types.
	ErrUnknownCommand = errors.New("unknown command")
)

// CollaboratorError wraps a failure of an external collaborator call so the
// hosting layer can tell it apart from precondition violations.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func transitionError(op string, phase Phase) error {
	return fmt.Errorf("%s in %s phase: %w", op, phase, ErrInvalidTransition)
}
