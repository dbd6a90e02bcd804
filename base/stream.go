package base

import (
	"sync"
	"sync/atomic"
	"time"
)

// FutureState is the completion token handed out for timed stream
// submissions. It implements Future.
type FutureState struct {
	RefCounted
	valid  atomic.Bool
	timeNs atomic.Int64
}

func newFutureState() *FutureState {
	f := &FutureState{}
	f.InitRef()
	return f
}

// complete marks the future valid with the measured execution time.
func (f *FutureState) complete(elapsedNs int64) {
	f.timeNs.Store(elapsedNs)
	f.valid.Store(true)
}

// Valid reports whether the operation behind the future has completed.
func (f *FutureState) Valid() bool {
	return f.valid.Load()
}

// TimeNs returns the execution time in nanoseconds, or -1 while the
// future is not yet valid.
func (f *FutureState) TimeNs() int64 {
	if !f.valid.Load() {
		return -1
	}
	return f.timeNs.Load()
}

// Destroy implements Object. Futures hold no backend resources.
func (f *FutureState) Destroy() error { return nil }

type streamCmd struct {
	run    func() error
	future *FutureState
	ack    chan struct{} // non-nil marks a sync point
}

// Stream is the ordered asynchronous command executor behind every task
// queue. A single background goroutine consumes commands in submission
// order from an unbounded pending list, so the submitting goroutine never
// blocks, no matter how far it runs ahead of the executor; Sync is the
// only blocking call. A failed command is recorded and surfaced on the
// next call that touches the stream; the failing command is never retried.
type Stream struct {
	done chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	pending []streamCmd
	err     error
	closed  bool
}

// NewStream starts the stream's executor goroutine.
func NewStream() *Stream {
	s := &Stream{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

func (s *Stream) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		cmd := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		if cmd.ack != nil {
			close(cmd.ack)
			continue
		}
		start := time.Now()
		if err := cmd.run(); err != nil {
			s.recordErr(err)
			continue
		}
		if cmd.future != nil {
			cmd.future.complete(time.Since(start).Nanoseconds())
		}
	}
}

func (s *Stream) recordErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// takeErr returns and clears the recorded failure, so it is reported
// exactly once.
func (s *Stream) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// enqueue appends a command to the pending list and wakes the executor.
// It never blocks. The first return is any previously recorded command
// failure; the second reports a closed stream, in which case the command
// was not enqueued.
func (s *Stream) enqueue(cmd streamCmd) (recorded, closed error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, InvalidOperationf("task queue already destroyed")
	}
	recorded = s.err
	s.err = nil
	s.pending = append(s.pending, cmd)
	s.cond.Signal()
	return recorded, nil
}

// Submit enqueues a command with no completion token. It returns a
// previously recorded command failure, if any; the command itself always
// runs asynchronously.
func (s *Stream) Submit(run func() error) error {
	recorded, closed := s.enqueue(streamCmd{run: run})
	if closed != nil {
		return closed
	}
	return recorded
}

// SubmitTimed enqueues a command and returns its completion token. The
// future becomes valid once the command finished; if the command fails,
// the future stays invalid and the failure surfaces on a later call.
func (s *Stream) SubmitTimed(run func() error) (Future, error) {
	future := newFutureState()
	recorded, closed := s.enqueue(streamCmd{run: run, future: future})
	if closed != nil {
		return nil, closed
	}
	return future, recorded
}

// Barrier enqueues an ordering marker. The stream executes commands one
// at a time in submission order, so every command before the barrier has
// completed before anything after it starts.
func (s *Stream) Barrier() (Future, error) {
	return s.SubmitTimed(func() error { return nil })
}

// Sync blocks until every command submitted before the call has
// completed, and returns any failure recorded since the last report.
func (s *Stream) Sync() error {
	ack := make(chan struct{})
	recorded, closed := s.enqueue(streamCmd{ack: ack})
	if closed != nil {
		return closed
	}
	<-ack
	if recorded != nil {
		return recorded
	}
	return s.takeErr()
}

// Close drains the stream and stops its executor. Idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	<-s.done
	return s.takeErr()
}
