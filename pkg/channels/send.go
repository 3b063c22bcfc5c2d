// Package channels holds small generic helpers for delivering values over
// channels without risking a blocked or panicking sender.
package channels

import (
	"errors"
	"time"
)

var (
	// ErrChannelClosed is returned when the receiving channel was closed.
	ErrChannelClosed = errors.New("channel closed")
	// ErrChannelTimeout is returned when no receiver took the value in time.
	ErrChannelTimeout = errors.New("send timeout")
	// ErrChannelFull is returned by a non-blocking send with no room left.
	ErrChannelFull = errors.New("channel full")
)

// Send delivers msg on ch. A positive wait blocks for up to that long;
// otherwise the send does not block at all.
func Send[T any](ch chan<- T, msg T, wait time.Duration) error {
	if wait > 0 {
		return SendWithTimeout(ch, msg, wait)
	}

	return SendNonBlock(ch, msg)
}

// SendNonBlock attempts to send a message without blocking.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer recoverClosed(&err)

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// SendWithTimeout waits up to timeout for a receiver or buffer space.
func SendWithTimeout[T any](ch chan<- T, msg T, timeout time.Duration) (err error) {
	defer recoverClosed(&err)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- msg:
		return nil
	case <-timer.C:
		return ErrChannelTimeout
	}
}

// recoverClosed turns the panic from sending on a closed channel into
// ErrChannelClosed.
func recoverClosed(err *error) {
	if r := recover(); r != nil {
		*err = ErrChannelClosed
	}
}
