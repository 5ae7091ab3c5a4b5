package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send/Receive once the connection has been
// closed, and by Read/Write once the adapting io.Reader/io.Writer has
// observed that closure.
var ErrClosed = errors.New("transport: connection closed")

// Conn is one end of an in-memory duplex byte connection. Messages sent on
// one end arrive, in order, on the other end's Receive. A Conn is safe for
// concurrent Send and Receive calls from different goroutines; delivery is
// backed by buffered channels.
type Conn struct {
	send   chan<- []byte
	recv   <-chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewPipe returns two connected Conns; messages sent on a are received on
// b and vice versa.
func NewPipe() (a, b *Conn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	closedA := make(chan struct{})
	closedB := make(chan struct{})
	a = &Conn{send: ab, recv: ba, closed: closedA}
	b = &Conn{send: ba, recv: ab, closed: closedB}
	return a, b
}

// Send copies b and delivers it to the peer's Receive, blocking until
// delivered, ctx is cancelled, or the connection is closed.
func (c *Conn) Send(ctx context.Context, b []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	msg := append([]byte(nil), b...)
	select {
	case c.send <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrClosed
	}
}

// Receive blocks until a message arrives, ctx is cancelled, or the
// connection is closed.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case msg := <-c.recv:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	}
}

// Close marks this end closed. It is idempotent and safe to call more than
// once.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// StreamWriter adapts a Conn to io.Writer by sending each Write call's
// bytes as one message, using ctx for every underlying Send.
type StreamWriter struct {
	conn *Conn
	ctx  context.Context
}

// NewStreamWriter returns an io.Writer that sends each Write as one message
// on conn.
func NewStreamWriter(ctx context.Context, conn *Conn) *StreamWriter {
	return &StreamWriter{conn: conn, ctx: ctx}
}

func (w *StreamWriter) Write(p []byte) (int, error) {
	if err := w.conn.Send(w.ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// StreamReader adapts a Conn to io.Reader, reassembling the byte stream
// from received messages and satisfying partial Read calls from any
// leftover buffered bytes.
type StreamReader struct {
	conn *Conn
	ctx  context.Context
	buf  []byte
}

// NewStreamReader returns an io.Reader that pulls messages off conn as
// needed to satisfy Read calls.
func NewStreamReader(ctx context.Context, conn *Conn) *StreamReader {
	return &StreamReader{conn: conn, ctx: ctx}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		msg, err := r.conn.Receive(r.ctx)
		if err != nil {
			return 0, err
		}
		r.buf = msg
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
