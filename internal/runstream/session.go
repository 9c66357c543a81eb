package runstream

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	kairoErrors "github.com/kairodev/kairo/internal/errors"
)

// Handler receives normalized events in arrival order. Calls are made
// from a single goroutine; a handler returns before the next event is
// delivered, so each fold completes before its successor starts.
type Handler func(Event)

// Session manages one subscription to a primitive source: it pulls
// primitives, normalizes them, delivers events to the handler, and
// closes the source exactly once on a terminal event, transport
// failure, or Cancel.
type Session struct {
	threadID string
	source   Source
	handler  Handler

	closeOnce sync.Once
	done      chan struct{}
	canceled  chan struct{}
	cancelMu  sync.Mutex
	isCancel  bool
}

// NewSession wires src to handler for one run on the given thread.
func NewSession(threadID string, src Source, handler Handler) *Session {
	return &Session{
		threadID: threadID,
		source:   src,
		handler:  handler,
		done:     make(chan struct{}),
		canceled: make(chan struct{}),
	}
}

// Start launches the consume loop and returns immediately.
func (s *Session) Start() {
	go s.run()
}

// Done is closed after the terminal event has been delivered and the
// source closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancel aborts the subscription. It closes the transport exactly once,
// never panics when already closed, and is safe to call concurrently
// with an in-flight delivery.
func (s *Session) Cancel() {
	s.cancelMu.Lock()
	s.isCancel = true
	s.cancelMu.Unlock()
	s.closeSource()
}

// Wait blocks until the session finished.
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	defer s.closeSource()

	for {
		prim, err := s.source.Next()
		if err != nil {
			s.handler(RunError{Message: s.failureMessage(err)})
			return
		}

		evt, ok := Normalize(prim)
		if !ok {
			slog.Debug("Dropping unrecognized primitive", "thread", s.threadID, "type", prim.Type)
			continue
		}

		s.handler(evt)

		if IsTerminal(evt) {
			return
		}
	}
}

// failureMessage turns a transport-level failure into the user-visible
// message of the synthetic error event. A bare EOF means the producer
// went away without a terminal event, which is still a broken run.
func (s *Session) failureMessage(err error) string {
	s.cancelMu.Lock()
	canceled := s.isCancel
	s.cancelMu.Unlock()

	switch {
	case canceled:
		return "run canceled"
	case errors.Is(err, io.EOF):
		return "stream ended before completion"
	case errors.Is(err, kairoErrors.ErrTransport):
		return err.Error()
	default:
		return "transport failure: " + err.Error()
	}
}

func (s *Session) closeSource() {
	s.closeOnce.Do(func() {
		if err := s.source.Close(); err != nil {
			slog.Debug("Source close failed", "thread", s.threadID, "error", err)
		}
	})
}
