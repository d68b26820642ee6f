package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"loglens/internal/app/errors"
	"loglens/internal/config"
)

// Transport moves newline-delimited envelopes between the two ends of a
// channel. Receive returns the raw line so that malformed input can be
// rejected without tearing the channel down.
type Transport interface {
	Send(env Envelope) error
	Receive() ([]byte, error)
	Close() error
}

// connTransport frames envelopes over a stream connection
type connTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewConnTransport wraps a connection in newline-delimited JSON framing
func NewConnTransport(conn net.Conn) Transport {
	return &connTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Send marshals and writes one envelope
func (t *connTransport) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFailedToMarshalMessage, err)
	}

	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFailedToWriteSocket, err)
	}

	return nil
}

// Receive blocks until one full line arrives
func (t *connTransport) Receive() ([]byte, error) {
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			return nil, errors.ErrChannelClosed
		}

		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToReadSocket, err)
	}

	return line, nil
}

// Close closes the underlying connection
func (t *connTransport) Close() error {
	return t.conn.Close()
}

// pipeTransport is one end of an in-memory transport pair
type pipeTransport struct {
	in   chan []byte
	out  chan []byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns two connected in-memory transports. Closing either end
// closes both.
func Pipe() (Transport, Transport) {
	ab := make(chan []byte, config.ProtocolBufferSize)
	ba := make(chan []byte, config.ProtocolBufferSize)
	done := make(chan struct{})
	once := &sync.Once{}

	host := &pipeTransport{in: ba, out: ab, done: done, once: once}
	panel := &pipeTransport{in: ab, out: ba, done: done, once: once}

	return host, panel
}

// Send marshals the envelope onto the peer's inbound queue
func (t *pipeTransport) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrFailedToMarshalMessage, err)
	}

	select {
	case t.out <- data:
		return nil
	case <-t.done:
		return errors.ErrChannelClosed
	}
}

// Receive blocks until a message or close
func (t *pipeTransport) Receive() ([]byte, error) {
	select {
	case line := <-t.in:
		return line, nil
	case <-t.done:
		return nil, errors.ErrChannelClosed
	}
}

// Close shuts both ends down
func (t *pipeTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
	})

	return nil
}
