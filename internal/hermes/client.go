// Package hermes connects Kai to the NATS bus: handled queries are published
// as events and remote controls arrive as commands.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Client publishes Kai events and dispatches control commands.
type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(url, connectOptions(token, logger)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

func connectOptions(token string, logger *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name("kai"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	return opts
}

// PublishQueryHandled announces a handled query on SubjectQueryHandled.
func (c *Client) PublishQueryHandled(evt QueryEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal query event: %w", err)
	}
	return c.conn.Publish(SubjectQueryHandled, payload)
}

// OnMicControl calls set(true) for {"action":"start"} and set(false) for
// {"action":"stop"} on SubjectMicControl.
func (c *Client) OnMicControl(set func(on bool)) error {
	return c.subscribe(SubjectMicControl, micControl(c.logger, set))
}

// OnSpeechStop calls stop for every {"action":"stop"} on SubjectSpeechControl.
func (c *Client) OnSpeechStop(stop func()) error {
	return c.subscribe(SubjectSpeechControl, speechControl(c.logger, stop))
}

func micControl(logger *slog.Logger, set func(on bool)) func([]byte) {
	return func(data []byte) {
		cmd, err := ParseControl(data, ActionStart, ActionStop)
		if err != nil {
			logger.Warn("ignoring mic control", "error", err)
			return
		}
		set(cmd.Action == ActionStart)
	}
}

func speechControl(logger *slog.Logger, stop func()) func([]byte) {
	return func(data []byte) {
		if _, err := ParseControl(data, ActionStop); err != nil {
			logger.Warn("ignoring speech control", "error", err)
			return
		}
		stop()
	}
}

func (c *Client) subscribe(subject string, handle func([]byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handle(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Close unsubscribes and flushes pending events before closing.
func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
