// Package telemetry publishes game events to external consumers.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DetonationSubject is the NATS subject detonation records are published on.
const DetonationSubject = "bombs.detonated"

// DetonationRecord describes one bomb detonation on a server.
type DetonationRecord struct {
	Server  string    `json:"server"`
	BombID  string    `json:"bombId"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Chained bool      `json:"chained"`
	Tick    int64     `json:"tick"`
	At      time.Time `json:"at"`
}

// Publisher sends detonation records somewhere.
type Publisher interface {
	PublishDetonation(ctx context.Context, rec DetonationRecord) error
	Close() error
}

// NopPublisher drops every record.
type NopPublisher struct{}

func (NopPublisher) PublishDetonation(context.Context, DetonationRecord) error { return nil }
func (NopPublisher) Close() error                                              { return nil }

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON records on DetonationSubject.
type NATSPublisher struct {
	conn    natsConn
	subject string
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: DetonationSubject}
}

// ConnectNATS dials url and returns a publisher that owns the connection.
func ConnectNATS(url, name string, logger zerolog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSPublisher(nc), nil
}

func (p *NATSPublisher) PublishDetonation(ctx context.Context, rec DetonationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal detonation: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending records and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
