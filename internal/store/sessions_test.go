package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)}
}

func TestCreateAndWith(t *testing.T) {
	s := store.NewSessionStore()

	id := s.Create(interview.NewSession())

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.True(t, s.Exists(id))
	assert.Equal(t, 1, s.Len())

	err = s.With(id, func(sess *interview.Session) error {
		sess.QuestionIndex = 4
		return nil
	})
	require.NoError(t, err)

	snap, err := s.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.QuestionIndex)
}

func TestWith_UnknownSession(t *testing.T) {
	s := store.NewSessionStore()

	err := s.With("missing", func(*interview.Session) error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Snapshot("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = s.Subscribe("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWith_PropagatesError(t *testing.T) {
	s := store.NewSessionStore()
	id := s.Create(interview.NewSession())
	boom := errors.New("boom")

	err := s.With(id, func(*interview.Session) error { return boom })

	assert.ErrorIs(t, err, boom)
}

func TestWith_SerialisesCommandsPerSession(t *testing.T) {
	s := store.NewSessionStore()
	id := s.Create(interview.NewSession())

	var inside atomic.Int32
	var overlapped atomic.Bool
	var wg sync.WaitGroup

	for range 50 {
		wg.Go(func() {
			_ = s.With(id, func(sess *interview.Session) error {
				if inside.Add(1) > 1 {
					overlapped.Store(true)
				}
				sess.QuestionIndex++
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			})
		})
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "commands on one session must not overlap")

	snap, err := s.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.QuestionIndex)
}

func TestSnapshot_IsIsolated(t *testing.T) {
	s := store.NewSessionStore()
	id := s.Create(interview.NewSession())
	now := time.Now()

	require.NoError(t, s.With(id, func(sess *interview.Session) error {
		sess.LobbyTranscript = append(sess.LobbyTranscript, interview.Turn{Speaker: interview.SpeakerCandidate, Text: "hi"})
		sess.MicWindowStartedAt = &now
		return nil
	}))

	snap, err := s.Snapshot(id)
	require.NoError(t, err)
	snap.LobbyTranscript[0].Text = "changed"
	*snap.MicWindowStartedAt = now.Add(time.Hour)

	again, err := s.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "hi", again.LobbyTranscript[0].Text)
	assert.Equal(t, now, *again.MicWindowStartedAt)
}

func TestDelete(t *testing.T) {
	s := store.NewSessionStore()
	id := s.Create(interview.NewSession())
	changes, cancel, err := s.Subscribe(id)
	require.NoError(t, err)
	defer cancel()

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.False(t, s.Exists(id))
	assert.ErrorIs(t, s.With(id, func(*interview.Session) error { return nil }), store.ErrNotFound)

	_, ok := <-changes
	assert.False(t, ok, "deleting a session closes its change feed")
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	clock := newClock()
	s := store.NewSessionStore(store.WithClock(clock.Now))
	id := s.Create(interview.NewSession())

	changes, cancel, err := s.Subscribe(id)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, s.With(id, func(sess *interview.Session) error {
		sess.Phase = interview.PhaseActive
		sess.QuestionIndex = 1
		return nil
	}))

	select {
	case c := <-changes:
		assert.Equal(t, id, c.SessionID)
		assert.Equal(t, interview.PhaseActive, c.Phase)
		assert.Equal(t, "active", c.PhaseName)
		assert.Equal(t, 1, c.QuestionIndex)
		assert.Equal(t, clock.Now(), c.At)
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestDropped_CountsChangesMissedByIdleSubscriber(t *testing.T) {
	s := store.NewSessionStore()
	id := s.Create(interview.NewSession())

	_, cancel, err := s.Subscribe(id)
	require.NoError(t, err)
	defer cancel()

	// Never read: the first 16 changes fill the buffer, the rest time out.
	for range 18 {
		require.NoError(t, s.With(id, func(*interview.Session) error { return nil }))
	}

	assert.Equal(t, 2, s.Dropped(id))
	assert.Zero(t, s.Dropped("missing"))
}

func TestSweep(t *testing.T) {
	clock := newClock()
	s := store.NewSessionStore(store.WithClock(clock.Now))

	stale := s.Create(interview.NewSession())
	clock.Advance(90 * time.Minute)
	fresh := s.Create(interview.NewSession())
	clock.Advance(45 * time.Minute)

	evicted := s.Sweep(2 * time.Hour)

	assert.Equal(t, 1, evicted)
	assert.False(t, s.Exists(stale))
	assert.True(t, s.Exists(fresh))
}

func TestSweep_UseRefreshesIdleTime(t *testing.T) {
	clock := newClock()
	s := store.NewSessionStore(store.WithClock(clock.Now))
	id := s.Create(interview.NewSession())

	clock.Advance(time.Hour)
	require.NoError(t, s.With(id, func(*interview.Session) error { return nil }))
	clock.Advance(time.Hour + time.Minute)

	assert.Zero(t, s.Sweep(2*time.Hour))
	assert.True(t, s.Exists(id))
}

func TestSweep_SkipsBusySessions(t *testing.T) {
	clock := newClock()
	s := store.NewSessionStore(store.WithClock(clock.Now))
	id := s.Create(interview.NewSession())
	clock.Advance(3 * time.Hour)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.With(id, func(*interview.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	assert.Zero(t, s.Sweep(2*time.Hour))
	assert.True(t, s.Exists(id))

	close(release)
	require.NoError(t, <-done)
}

func TestJanitor_StopsOnCancel(t *testing.T) {
	clock := newClock()
	s := store.NewSessionStore(store.WithClock(clock.Now))
	id := s.Create(interview.NewSession())
	clock.Advance(3 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Janitor(ctx, time.Millisecond, 2*time.Hour)
		close(done)
	}()

	assert.Eventually(t, func() bool { return !s.Exists(id) }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
