package runstream

import (
	"context"
	"io"
	"sync"

	kairoErrors "github.com/kairodev/kairo/internal/errors"
)

// Source is a pull-based stream of raw primitives. Next blocks until a
// primitive is available, returns io.EOF when the producer finished
// normally, and any other error on transport failure. Close releases
// the underlying transport and must be safe to call more than once and
// concurrently with Next.
type Source interface {
	Next() (Primitive, error)
	Close() error
}

// Pipe is an in-memory Source fed by a producer goroutine. The agent
// loop writes primitives with Send and finishes with CloseSend (normal
// end) or Fail (transport-level failure); the consuming session pulls
// them in order via Next.
type Pipe struct {
	ch     chan Primitive
	closed chan struct{}

	once    sync.Once
	sendMu  sync.Mutex
	sendEnd bool

	mu  sync.Mutex
	err error // terminal producer error, read after ch is drained
}

// NewPipe creates a pipe with the given channel buffer.
func NewPipe(buffer int) *Pipe {
	if buffer < 0 {
		buffer = 0
	}
	return &Pipe{
		ch:     make(chan Primitive, buffer),
		closed: make(chan struct{}),
	}
}

// Send delivers one primitive to the consumer. It returns an error when
// the pipe was closed by the consumer or ctx ended; producers use that
// as their stop signal.
func (p *Pipe) Send(ctx context.Context, prim Primitive) error {
	select {
	case <-p.closed:
		return kairoErrors.Transport("pipe closed")
	case <-ctx.Done():
		return ctx.Err()
	case p.ch <- prim:
		return nil
	}
}

// CloseSend marks a normal end of stream. Next drains buffered
// primitives and then returns io.EOF.
func (p *Pipe) CloseSend() {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if p.sendEnd {
		return
	}
	p.sendEnd = true
	close(p.ch)
}

// Fail marks the stream as broken at the transport level. Buffered
// primitives are still delivered; afterwards Next returns err.
func (p *Pipe) Fail(err error) {
	p.mu.Lock()
	if p.err == nil && err != nil {
		p.err = err
	}
	p.mu.Unlock()
	p.CloseSend()
}

// Next implements Source.
func (p *Pipe) Next() (Primitive, error) {
	select {
	case <-p.closed:
		return Primitive{}, kairoErrors.Transport("pipe closed")
	case prim, ok := <-p.ch:
		if !ok {
			p.mu.Lock()
			err := p.err
			p.mu.Unlock()
			if err != nil {
				return Primitive{}, err
			}
			return Primitive{}, io.EOF
		}
		return prim, nil
	}
}

// Close implements Source. Safe to call repeatedly and concurrently
// with Next or Send.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
