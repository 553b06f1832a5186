// internal/engine/scheduler.go
package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sampler/internal/metrics"
	"github.com/tamzrod/modbus-sampler/internal/session"
)

// Task is one armed deferred close.
type Task struct {
	timer *time.Timer
	conn  Conn
	done  chan struct{}
}

// Cancel stops the task. It reports false if the close already fired.
func (t *Task) Cancel() bool {
	return t.timer.Stop()
}

// Done is closed once the deferred close has run. It stays open if the
// task was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Scheduler applies the keep-alive policy for one sampler instance.
// At most one deferred close is pending at a time.
type Scheduler struct {
	mu      sync.Mutex
	slot    *session.Slot[Conn]
	pending *Task
	log     zerolog.Logger
	metrics *metrics.Collector
}

func NewScheduler(slot *session.Slot[Conn], log zerolog.Logger, m *metrics.Collector) *Scheduler {
	return &Scheduler{slot: slot, log: log, metrics: m}
}

// Apply runs the policy selected by keepAlive:
// < 0 close now, 0 leave open, > 0 arm a deferred close.
// The returned task is nil unless one was armed.
func (s *Scheduler) Apply(c Conn, keepAlive time.Duration) *Task {
	switch {
	case keepAlive < 0:
		if err := s.CloseNow(c); err != nil {
			s.log.Warn().Err(err).Msg("close connection failed")
		} else {
			s.log.Debug().Msg("connection closed immediately")
		}
		return nil
	case keepAlive == 0:
		s.log.Debug().Msg("keeping the connection open indefinitely")
		return nil
	default:
		return s.Arm(c, keepAlive)
	}
}

// CloseNow closes c and clears it from the slot.
func (s *Scheduler) CloseNow(c Conn) error {
	_, err := s.slot.Release(c)
	return err
}

// Arm schedules a close of c after d, replacing any pending close.
// The replaced task's connection is closed when the slot no longer holds it.
func (s *Scheduler) Arm(c Conn, d time.Duration) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil && s.pending.Cancel() {
		s.metrics.IncDeferredClose(metrics.OutcomeCancelled)
		s.log.Debug().Msg("pending deferred close replaced")
		if s.pending.conn != c {
			s.closeDetached(s.pending.conn)
		}
	}

	t := &Task{conn: c, done: make(chan struct{})}
	t.timer = time.AfterFunc(d, func() {
		defer close(t.done)
		s.fire(t, c, d)
	})
	s.pending = t

	s.log.Debug().Dur("keep_alive", d).Msg("deferred close armed")
	return t
}

// Pending returns the armed task, if any.
func (s *Scheduler) Pending() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Stop cancels the pending close. The connection stays open while the
// slot holds it; a detached one is closed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		if s.pending.Cancel() {
			s.closeDetached(s.pending.conn)
		}
		s.pending = nil
	}
}

func (s *Scheduler) closeDetached(c Conn) {
	closed, err := s.slot.CloseDetached(c)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("close of replaced connection failed")
	case closed:
		s.log.Debug().Msg("replaced connection closed")
	}
}

func (s *Scheduler) fire(t *Task, c Conn, d time.Duration) {
	open, err := s.slot.Release(c)
	switch {
	case err != nil:
		s.metrics.IncDeferredClose(metrics.OutcomeFailed)
		s.log.Error().Err(err).Msg("error closing connection")
	case open:
		s.metrics.IncDeferredClose(metrics.OutcomeClosed)
		s.log.Info().Dur("keep_alive", d).Msg("connection closed after keep-alive duration")
	}

	s.mu.Lock()
	if s.pending == t {
		s.pending = nil
	}
	s.mu.Unlock()
}
