// Package queue_publisher publishes session changes to RabbitMQ. Errors
// are logged and returned so callers can ignore them without interrupting
// the request that caused the change.
package queue_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/model"
	q "github.com/iliyamo/westfest/internal/queue"
)

// SessionPublisher keeps one broker channel open and redials after a
// failure.
type SessionPublisher struct {
	url    string
	origin string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewSessionPublisher returns a publisher that stamps events with origin.
// The broker is dialled on first use.
func NewSessionPublisher(url, origin string) *SessionPublisher {
	return &SessionPublisher{url: url, origin: origin}
}

// Origin is the instance id stamped on every event.
func (p *SessionPublisher) Origin() string { return p.origin }

// Broadcast publishes the new session of device to the session exchange.
func (p *SessionPublisher) Broadcast(ctx context.Context, device string, snap model.Session) error {
	body, err := json.Marshal(NewEvent(p.origin, device, snap, time.Now()))
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: channel unavailable")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, q.SessionExchange, "", false, false, pub); err != nil {
		log.Warn().Err(err).Str("device", device).Msg("rabbitmq: publish failed")
		p.reset()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *SessionPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// NewEvent builds the wire event for a session change.
func NewEvent(origin, device string, snap model.Session, at time.Time) q.SessionChangedEvent {
	ev := q.SessionChangedEvent{
		Origin:        origin,
		Device:        device,
		Authenticated: snap.Authenticated,
		ChangedAt:     at.UTC().Format(time.RFC3339),
	}
	if snap.Authenticated {
		ev.Profile = snap.Profile
	}
	return ev
}

func (p *SessionPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if err := q.DeclareExchange(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *SessionPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
