package server

import (
	"context"
	"fmt"
	"net"

	"loglens/internal/app/errors"
	"loglens/internal/app/protocol"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// Client is the panel side of the protocol, used by the CLI to talk to
// a running serve instance.
type Client interface {
	Channel() protocol.Channel
	Run(ctx context.Context) error
	NotifyReady(ctx context.Context) error
	Summary(ctx context.Context) (protocol.SummaryPayload, error)
	Close() error
}

// client implements the Client interface
type client struct {
	cfg *config.Config
	ch  protocol.Channel
}

// Dial connects to the unix socket of a running instance
func Dial(cfg *config.Config, log logger.Logger) (Client, error) {
	conn, err := net.DialTimeout("unix", cfg.Socket, config.SocketDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrFailedToConnectSocket, err)
	}

	return &client{
		cfg: cfg,
		ch:  protocol.NewChannel(protocol.NewConnTransport(conn), log),
	}, nil
}

// Channel exposes the underlying protocol channel
func (c *client) Channel() protocol.Channel {
	return c.ch
}

// Run drives the receive loop; it returns when the connection closes
func (c *client) Run(ctx context.Context) error {
	return c.ch.Run(ctx)
}

// NotifyReady announces the panel and waits for the acknowledgement
func (c *client) NotifyReady(ctx context.Context) error {
	_, err := c.ch.SendAndReceive(ctx,
		protocol.CommandWebviewReady, nil, protocol.CommandMessageAck, c.cfg.Protocol.Timeout)

	return err
}

// Summary requests the scraped workspace summary
func (c *client) Summary(ctx context.Context) (protocol.SummaryPayload, error) {
	res, err := c.ch.SendAndReceive(ctx,
		protocol.CommandGetSummary, nil, protocol.CommandGetSummaryResponse, c.cfg.Protocol.Timeout)
	if err != nil {
		return protocol.SummaryPayload{}, err
	}

	payload, ok := res.(protocol.SummaryPayload)
	if !ok {
		return protocol.SummaryPayload{}, fmt.Errorf("%w: %s", errors.ErrSchemaMismatch, protocol.CommandGetSummaryResponse)
	}

	return payload, nil
}

// Close closes the connection
func (c *client) Close() error {
	return c.ch.Close()
}
