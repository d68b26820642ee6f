package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"loglens/internal/app/errors"
	"loglens/internal/config/logger"
)

// Inbound is a validated received message. Respond replies to the
// originating correlation id.
type Inbound struct {
	ID      string
	Command Command
	Payload interface{}
	Respond func(cmd Command, payload interface{}) error
}

// Handler processes an inbound broadcast message
type Handler func(msg Inbound)

// Channel is one end of the typed bidirectional protocol. Both the host
// and the panel hold one, over opposite ends of the same transport.
type Channel interface {
	SendAndForget(cmd Command, payload interface{}) (string, error)
	SendAndReceive(ctx context.Context, cmd Command, payload interface{}, want Command, timeout time.Duration) (interface{}, error)
	RegisterMessageHandler(cmd Command, h Handler) func()
	Acknowledge(id string) error
	Run(ctx context.Context) error
	Close() error
}

// pendingRequest is one in-flight sendAndReceive waiting for its reply
type pendingRequest struct {
	want Command
	ch   chan pendingResult
}

type pendingResult struct {
	payload interface{}
	err     error
}

// channel implements the Channel interface
type channel struct {
	transport Transport
	log       logger.Logger

	mu       sync.Mutex
	pending  map[string]pendingRequest
	handlers map[Command]map[int]Handler
	nextID   int
}

// NewChannel creates a channel over the given transport
func NewChannel(t Transport, log logger.Logger) Channel {
	return &channel{
		transport: t,
		log:       log.WithComponent("CHANNEL"),
		pending:   make(map[string]pendingRequest),
		handlers:  make(map[Command]map[int]Handler),
	}
}

// SendAndForget validates and transmits a command, expecting no reply.
// The assigned correlation id is returned.
func (c *channel) SendAndForget(cmd Command, payload interface{}) (string, error) {
	data, err := encodePayload(cmd, payload)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	if err := c.transport.Send(Envelope{ID: id, Command: cmd, Data: data}); err != nil {
		return "", err
	}

	return id, nil
}

// SendAndReceive transmits a command and blocks until a reply tagged
// want arrives for the same id, the timeout elapses, or ctx is done.
// A timeout of zero or less waits on the context alone.
func (c *channel) SendAndReceive(ctx context.Context, cmd Command, payload interface{}, want Command, timeout time.Duration) (interface{}, error) {
	data, err := encodePayload(cmd, payload)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	resCh := make(chan pendingResult, 1)

	c.mu.Lock()
	c.pending[id] = pendingRequest{want: want, ch: resCh}
	c.mu.Unlock()

	if err := c.transport.Send(Envelope{ID: id, Command: cmd, Data: data}); err != nil {
		c.removePending(id)

		return nil, err
	}

	var timer <-chan time.Time

	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()

		timer = t.C
	}

	select {
	case res := <-resCh:
		return res.payload, res.err
	case <-timer:
		c.removePending(id)

		return nil, fmt.Errorf("%w: %s after %s", errors.ErrResponseTimeout, cmd, timeout)
	case <-ctx.Done():
		c.removePending(id)

		return nil, ctx.Err()
	}
}

// RegisterMessageHandler adds a broadcast listener for a command tag and
// returns its unsubscribe function.
func (c *channel) RegisterMessageHandler(cmd Command, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handlers[cmd] == nil {
		c.handlers[cmd] = make(map[int]Handler)
	}

	c.nextID++
	id := c.nextID
	c.handlers[cmd][id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.handlers[cmd], id)
	}
}

// Acknowledge replies to an inbound message with a zero-payload ack
func (c *channel) Acknowledge(id string) error {
	return c.transport.Send(Envelope{ID: id, Command: CommandMessageAck})
}

// Run reads and dispatches inbound messages until the transport closes
// or the context is cancelled. Malformed input never stops the loop.
func (c *channel) Run(ctx context.Context) error {
	for {
		line, err := c.transport.Receive()
		if err != nil {
			if errors.Is(err, errors.ErrChannelClosed) || ctx.Err() != nil {
				return nil
			}

			return err
		}

		if ctx.Err() != nil {
			return nil
		}

		c.dispatch(line)
	}
}

// Close shuts the transport down, unblocking Run
func (c *channel) Close() error {
	return c.transport.Close()
}

// dispatch validates one inbound line, resolves any pending request for
// its id and invokes every broadcast handler for its tag.
func (c *channel) dispatch(line []byte) {
	env, err := ParseEnvelope(line)
	if err != nil {
		c.log.Error().Err(err).Msg("Dropping malformed envelope")

		return
	}

	payload, decodeErr := DecodePayload(env.Command, env.Data)

	c.mu.Lock()

	req, isPending := c.pending[env.ID]
	if isPending {
		delete(c.pending, env.ID)
	}

	listeners := make([]Handler, 0, len(c.handlers[env.Command]))
	for _, h := range c.handlers[env.Command] {
		listeners = append(listeners, h)
	}

	c.mu.Unlock()

	if isPending {
		switch {
		case decodeErr != nil:
			req.ch <- pendingResult{err: decodeErr}
		case env.Command != req.want:
			req.ch <- pendingResult{err: fmt.Errorf("%w: expected %s, got %s", errors.ErrSchemaMismatch, req.want, env.Command)}
		default:
			req.ch <- pendingResult{payload: payload}
		}
	}

	if decodeErr != nil {
		c.log.Error().Err(decodeErr).Msg("Dropping message failing schema validation")

		return
	}

	msg := Inbound{
		ID:      env.ID,
		Command: env.Command,
		Payload: payload,
		Respond: func(cmd Command, payload interface{}) error {
			return c.respond(env.ID, cmd, payload)
		},
	}

	for _, h := range listeners {
		c.invoke(h, msg)
	}
}

// invoke runs one handler, recovering panics so the loop survives
func (c *channel) invoke(h Handler, msg Inbound) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Msgf("Handler panicked for %s: %v", msg.Command, r)
		}
	}()

	h(msg)
}

// respond sends a reply correlated to an inbound id
func (c *channel) respond(id string, cmd Command, payload interface{}) error {
	data, err := encodePayload(cmd, payload)
	if err != nil {
		return err
	}

	return c.transport.Send(Envelope{ID: id, Command: cmd, Data: data})
}

// removePending drops a pending entry; late replies for it are ignored
func (c *channel) removePending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, id)
}

// encodePayload marshals an outbound payload and validates it against
// the command's schema before it goes on the wire.
func encodePayload(cmd Command, payload interface{}) (json.RawMessage, error) {
	if !Known(cmd) {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownCommand, cmd)
	}

	if payload == nil {
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFailedToMarshalMessage, err)
	}

	if _, err := DecodePayload(cmd, data); err != nil {
		return nil, err
	}

	return data, nil
}
